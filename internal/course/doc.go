// Package course implements the medication-course domain: the dosing
// regimen ladder, per-user course records, the command operations that
// mutate them, and the store that keeps all records behind one lock.
package course
