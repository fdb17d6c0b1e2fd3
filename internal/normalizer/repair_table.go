package normalizer

import "pdf-translator/internal/types"

// DefaultRepairTable lists substrings that commonly appear when a text layer
// was decoded with the wrong code page, and what to replace them with.
// Entries are applied in order, so multi-character sequences come before the
// single characters they start with.
var DefaultRepairTable = []types.Replacement{
	{From: "®0", To: ""},
	{From: "Ì´", To: ""},
	{From: "ÐÀ", To: ""},
	{From: "Â", To: ""},
	{From: "¼", To: ""},
	{From: "»", To: " "},
	{From: "ˆ", To: ""},
	{From: "´", To: ""},
	{From: "É", To: "E"},
	{From: "È", To: "E"},
	{From: "Å", To: "A"},
	{From: "Ç", To: "C"},
	{From: "Æ", To: "AE"},
	{From: "Õ", To: "O"},
	{From: "®", To: "(R)"},
	{From: "©", To: "(C)"},
	{From: "·", To: "-"},
}
