// Package status locates and parses the backlog sentence on the naturalization page.
//
// The page announces which applications are currently processed in a single German
// sentence, e.g. "Derzeit werden Anträge mit Eingangsdatum bis Ende April 2023
// bearbeitet (Stand: 28.08.2025)." The package finds that sentence in flattened page
// text and turns it into two dates: the Stand (as-of) date and the target date up to
// which applications are processed. Vague month references are pinned to a fixed day:
// Anfang is the 5th, Mitte the 15th, Ende the last day of the month, and a bare month
// the 1st.
package status
