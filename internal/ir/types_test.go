package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMappedDataSizes(t *testing.T) {
	var nilData *MappedData
	assert.Equal(t, 0, nilData.Sizes()[CollectionActive])

	d := &MappedData{
		ActivePersonnel: make([]EmployeeRecord, 3),
		Terminations:    make([]TerminationRecord, 2),
	}
	assert.Equal(t, map[Collection]int{CollectionActive: 3, CollectionTerminations: 2}, d.Sizes())
}

func TestMappedDataSubjects(t *testing.T) {
	d := &MappedData{
		ActivePersonnel: []EmployeeRecord{{Row: 1, Name: "A"}, {Row: 2, Name: "B"}},
		Terminations:    []TerminationRecord{{EmployeeRecord: EmployeeRecord{Row: 1, Name: "C"}, TerminationDate: "2024-01-01"}},
	}

	subjects := d.Subjects()
	require.Len(t, subjects, 3)
	assert.Equal(t, CollectionActive, subjects[0].Collection)
	assert.Nil(t, subjects[0].Termination)
	assert.Equal(t, "B", subjects[1].Record.Name)
	assert.Equal(t, CollectionTerminations, subjects[2].Collection)
	assert.Equal(t, "2024-01-01", subjects[2].Termination.TerminationDate)
	assert.Same(t, &d.Terminations[0].EmployeeRecord, subjects[2].Record)
}

func TestTerminationRecordJSONIsFlat(t *testing.T) {
	raw := `{"row":1,"name":"C","rfc":"GODE850101AB1","termination_date":"2024-01-01","termination_cause":"despido"}`

	var rec TerminationRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	assert.Equal(t, 1, rec.Row)
	assert.Equal(t, "GODE850101AB1", rec.RFC)
	assert.Equal(t, "despido", rec.TerminationCause)
}
