// Package diag defines the issue model shared by every check.
//
// # Purpose
//
//   - Provide deterministic value types that capture problems found while
//     inspecting a scene.
//   - Offer light-weight utilities (IssueBuilder, Bag) that let checks emit
//     issues without coupling to storage or formatting layers.
//   - Describe the fix plan attached to an issue so presenters can label the
//     remediation before it is applied.
//
// # Scope
//
// Package diag performs no scene access, formatting beyond the short
// single-line form, IO or orchestration. Rendering lives in internal/report,
// execution and remediation in internal/check, internal/session and
// internal/fix.
//
// # Data model
//
// Issue is the central record. It contains:
//
//   - ID – UUIDv5 over check id, targets and description; identical scene
//     state yields identical ids, so presenters can refer to an issue across
//     re-runs of the same detection.
//   - CheckID – the owning check.
//   - Targets – opaque scene.Ref handles, resolved on demand by the accessor.
//   - Severity – WARNING or ERROR.
//   - Fixable – whether an automated remediation exists for this instance.
//   - Fix – title and proposed value of the remediation.
//   - Notes – optional extra context.
//
// Issues are never mutated after creation; Bag.Items and Issue.Clone hand
// out copies that share no slices with the originals.
package diag
