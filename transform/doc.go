// Package transform implements the transformation engine: it converts a
// graph of one variant into a brand-new graph of another variant, driven by a
// declarative TransformationSpec and a registry of per-pair rules.
//
// Transformations are strictly read-only on their input snapshot and always
// produce an independent new aggregate (fresh identity, born at version 0 and
// materialized through a normal atomic event application) carrying a
// TransformationApplied provenance event with the source graph id, source
// version and transform kind. Given identical source content and spec the
// output is byte-identical, so idempotent retries are safe. Rules that cannot
// represent part of the source faithfully attach PartialDataLoss warnings to
// the result rather than rejecting it.
package transform
