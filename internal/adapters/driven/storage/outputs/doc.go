// Package outputs reads and writes processing-session artifacts on disk.
//
// Each processing run leaves a directory under the outputs root:
//
//	outputs/session_<timestamp>/json/<slug>_enhanced.json          themes
//	outputs/session_<timestamp>/json/<slug>_nuances.json           nuances
//	outputs/session_<timestamp>/json/<slug>_evidence.json          evidence
//	outputs/session_<timestamp>/json/<slug>_nuances_evidence.json  evidence
//	outputs/session_<timestamp>/images/<slug>/<season>.jpg|jpeg|png
//
// Image directories written with single underscores ("kyoto_japan") are
// also recognised.
package outputs
