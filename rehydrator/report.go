package rehydrator

import (
	"fmt"
)

// FieldOutcome classifies what happened to one record field during population.
type FieldOutcome int

const (
	// FieldPopulated means the field was rehydrated and assigned.
	FieldPopulated FieldOutcome = iota

	// FieldRecovered means the assignment initially failed and a documented
	// recovery applied, e.g. an empty sequence substituted for null.
	FieldRecovered

	// FieldDropped means the assignment failed and the field was skipped.
	FieldDropped
)

func (o FieldOutcome) String() string {
	switch o {
	case FieldPopulated:
		return "populated"
	case FieldRecovered:
		return "recovered"
	case FieldDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// FieldReport records the outcome of one field assignment on one object.
type FieldReport struct {
	IdentityKey IdentityKeyString
	Field       string
	Outcome     FieldOutcome
	Err         error
}

// PopulationReport accumulates per-field outcomes across all objects
// reconstructed within one session. It answers how much of the simplified
// input actually made it into the object graph.
type PopulationReport struct {
	fields []FieldReport
}

// Populated returns the number of fields assigned without incident.
func (r *PopulationReport) Populated() int {
	return r.countByOutcome(FieldPopulated)
}

// Recovered returns the number of fields assigned through a recovery path.
func (r *PopulationReport) Recovered() int {
	return r.countByOutcome(FieldRecovered)
}

// Dropped returns the number of fields skipped after a failed assignment.
func (r *PopulationReport) Dropped() int {
	return r.countByOutcome(FieldDropped)
}

// Fields returns a copy of all per-field outcomes in the order they occurred.
func (r *PopulationReport) Fields() []FieldReport {
	out := make([]FieldReport, len(r.fields))
	copy(out, r.fields)

	return out
}

// DroppedFields returns the outcomes of all dropped fields, with the errors
// that caused the drops.
func (r *PopulationReport) DroppedFields() []FieldReport {
	var out []FieldReport

	for _, entry := range r.fields {
		if entry.Outcome == FieldDropped {
			out = append(out, entry)
		}
	}

	return out
}

// String renders the report in its canonical short form,
// e.g. "5 populated, 1 recovered, 2 dropped".
func (r *PopulationReport) String() string {
	return fmt.Sprintf("%d populated, %d recovered, %d dropped",
		r.Populated(), r.Recovered(), r.Dropped())
}

func (r *PopulationReport) add(entry FieldReport) {
	r.fields = append(r.fields, entry)
}

// amend rewrites the most recent outcome recorded for the given field of the
// given object. The ownership copy uses it when it repairs a field the
// generic population loop had already given up on.
func (r *PopulationReport) amend(key IdentityKeyString, field string, outcome FieldOutcome, err error) {
	for i := len(r.fields) - 1; i >= 0; i-- {
		if r.fields[i].IdentityKey == key && r.fields[i].Field == field {
			r.fields[i].Outcome = outcome
			r.fields[i].Err = err

			return
		}
	}

	r.add(FieldReport{IdentityKey: key, Field: field, Outcome: outcome, Err: err})
}

// outcomeOf returns the most recent outcome recorded for the given field of
// the given object.
func (r *PopulationReport) outcomeOf(key IdentityKeyString, field string) (FieldOutcome, bool) {
	for i := len(r.fields) - 1; i >= 0; i-- {
		if r.fields[i].IdentityKey == key && r.fields[i].Field == field {
			return r.fields[i].Outcome, true
		}
	}

	return 0, false
}

func (r *PopulationReport) countByOutcome(outcome FieldOutcome) int {
	count := 0

	for _, entry := range r.fields {
		if entry.Outcome == outcome {
			count++
		}
	}

	return count
}
