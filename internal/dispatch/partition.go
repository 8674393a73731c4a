// Package dispatch is the campaign engine: it partitions the contact list
// across two concurrent workers, drives the per-contact outcome state
// machine, and runs the initial pass plus one retry pass.
package dispatch

import "github.com/Kuruzyy/excelwablaster/internal/domain"

// Split partitions contacts into the even-index subset and the odd-index
// subset, both preserving the original relative order. It is applied
// independently to each pass's input, so a contact's retry-pass assignment
// is unrelated to its first-pass one.
func Split(contacts []domain.Contact) (even, odd []domain.Contact) {
	for i, c := range contacts {
		if i%2 == 0 {
			even = append(even, c)
		} else {
			odd = append(odd, c)
		}
	}
	return even, odd
}
