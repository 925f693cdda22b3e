package memscene

import "scenecheck/internal/scene"

// ReelDisaster builds a small shot with one problem for each stock check:
// an illegal node name, a camera with a near clip of 15, an image plane wired
// to the wrong camera, an NTSC time unit and keys outside the 1-100 range.
func ReelDisaster() *Scene {
	s := New()
	s.SetPlaybackRange(1, 100)
	_ = s.SetTimeUnit("ntsc")

	s.AddNode("L_arm_@#_RIG_JNT", "transform", "", nil)
	s.AddNode("sphere_GEO", "transform", "", nil)

	renderCam := s.AddNode("render_cam_SHOT_01", "transform", "", nil)
	s.AddNode("render_cam_SHOT_01Shape", "camera", renderCam, Attrs{
		"nearClipPlane": 15.0,
		"farClipPlane":  10000.0,
	})
	persp := s.AddNode("persp", "transform", "", nil)
	perspShape := s.AddNode("perspShape", "camera", persp, Attrs{
		"nearClipPlane": 0.1,
		"farClipPlane":  10000.0,
	})

	plane := s.AddNode("basura_IP", "imagePlane", "", Attrs{"imageName": "plates/shot01.####.exr"})
	_ = s.Connect(
		scene.Plug{Node: plane, Attr: "message"},
		scene.Plug{Node: perspShape, Attr: scene.IndexedAttr("imagePlane", 0)},
	)

	ctrl := s.AddNode("demo_CTRL", "transform", "", Attrs{"translateX": 0.0})
	curve := s.AddNode("demo_CTRL_translateX", "animCurveTL", "", Attrs{
		"keyTimes":  []float64{-10, 10, 200},
		"keyValues": []float64{0, 5, 0},
	})
	_ = s.Connect(
		scene.Plug{Node: curve, Attr: "output"},
		scene.Plug{Node: ctrl, Attr: "translateX"},
	)
	return s
}
