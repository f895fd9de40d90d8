// Package savgo reads SPSS .sav and .zsav statistical data files.
//
// It produces an Apache Arrow table alongside a rich metadata object
// describing variables, value labels, formats, missing-value
// specifications, multiple-response sets, and other auxiliary file
// structures, without depending on the C ReadStat library.
package savgo
