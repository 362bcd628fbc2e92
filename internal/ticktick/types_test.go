package ticktick

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTime_UnmarshalLayouts(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"wire layout", `"2024-03-04T15:00:00+0000"`, time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)},
		{"milliseconds", `"2024-03-04T15:00:00.000+0000"`, time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)},
		{"rfc3339", `"2024-03-04T15:00:00Z"`, time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)},
		{"offset", `"2024-03-04T17:00:00+0200"`, time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Time
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.True(t, tt.want.Equal(got.Time), "got %s", got.Time)
		})
	}
}

func TestTime_UnmarshalEmpty(t *testing.T) {
	var task Task
	require.NoError(t, json.Unmarshal([]byte(`{"id":"t1","projectId":"p1","title":"x","dueDate":null,"startDate":""}`), &task))

	_, ok := task.Due()
	assert.False(t, ok)
	assert.True(t, task.StartDate.IsZero())
}

func TestTime_UnmarshalInvalid(t *testing.T) {
	var got Time
	assert.Error(t, json.Unmarshal([]byte(`"yesterday-ish"`), &got))
}

func TestTime_MarshalUTC(t *testing.T) {
	berlin := time.FixedZone("CET", 3600)
	data, err := json.Marshal(NewTime(time.Date(2024, 3, 4, 23, 59, 59, 0, berlin)))
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-04T22:59:59+0000"`, string(data))
}

func TestTaskCreate_OmitsUnsetFields(t *testing.T) {
	data, err := json.Marshal(TaskCreate{Title: "Buy milk", ProjectID: "p1", Priority: Ptr(PriorityNone)})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, map[string]any{"title": "Buy milk", "projectId": "p1", "priority": float64(0)}, fields)
}

func TestTaskUpdate_IsEmpty(t *testing.T) {
	assert.True(t, TaskUpdate{ID: "t1", ProjectID: "p1"}.IsEmpty())
	assert.False(t, TaskUpdate{ID: "t1", ProjectID: "p1", Title: Ptr("new")}.IsEmpty())
}

func TestParsePriority(t *testing.T) {
	for in, want := range map[string]Priority{"none": PriorityNone, "LOW": PriorityLow, "medium": PriorityMedium, "5": PriorityHigh} {
		got, err := ParsePriority(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParsePriority("urgent")
	assert.Error(t, err)
	assert.Equal(t, "high", PriorityHigh.String())
}

func TestParseTaskStatus(t *testing.T) {
	s, err := ParseTaskStatus("completed")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, s)

	s, err = ParseTaskStatus("Open")
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, s)

	_, err = ParseTaskStatus("archived")
	assert.Error(t, err)
}
