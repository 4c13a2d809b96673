// Package domain contains the core business entities of the HTS
// classification engine: tariff schedule entries, classification
// candidates, feedback records and the threshold configuration.
//
// The package has no dependencies outside the standard library and is
// imported by every other layer. Entities here carry no behaviour that
// touches infrastructure.
package domain
