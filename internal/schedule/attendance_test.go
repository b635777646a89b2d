package schedule

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func TestSetMarkMissedOpensReason(t *testing.T) {
	visits, reasons := SetMark(nil, nil, 3, MarkMissed, nil)
	require.Len(t, visits, SlotCount)
	assert.Equal(t, MarkMissed, visits[3])
	text, ok := reasons[3]
	assert.True(t, ok)
	assert.Equal(t, "", text)

	_, reasons = SetMark(visits, reasons, 3, MarkMissed, strptr("감기"))
	assert.Equal(t, "감기", reasons[3])
}

func TestSetMarkRetainsReasonAcrossFlips(t *testing.T) {
	visits, reasons := SetMark(nil, nil, 5, MarkMissed, strptr("출장"))

	visits, reasons = SetMark(visits, reasons, 5, MarkVisited, nil)
	assert.Equal(t, "출장", reasons[5], "reason is kept in storage")
	assert.Empty(t, ActiveReasons(visits, reasons), "but not shown for a visited slot")

	visits, reasons = SetMark(visits, reasons, 5, MarkMissed, nil)
	assert.Equal(t, Reasons{5: "출장"}, ActiveReasons(visits, reasons))
}

func TestSetMarkDoesNotMutateInputs(t *testing.T) {
	visits := NewAttendance()
	reasons := Reasons{1: "a"}
	SetMark(visits, reasons, 1, MarkVisited, nil)
	SetMark(visits, reasons, 2, MarkMissed, strptr("b"))
	assert.Equal(t, MarkUnset, visits[1])
	assert.Equal(t, Reasons{1: "a"}, reasons)
}

func TestClearReason(t *testing.T) {
	visits, reasons := SetMark(nil, nil, 0, MarkMissed, strptr("x"))
	cleared := ClearReason(reasons, 0)
	assert.Empty(t, cleared)
	assert.Equal(t, "x", reasons[0])
	assert.Equal(t, MarkMissed, visits[0], "clearing a reason keeps the mark")
}

func TestAttendanceNormalize(t *testing.T) {
	short := make(Attendance, 24)
	short[23] = MarkVisited
	got := short.Normalize()
	require.Len(t, got, SlotCount)
	assert.Equal(t, MarkVisited, got[23])
	assert.Equal(t, MarkUnset, got[35])

	long := make(Attendance, 40)
	long[39] = MarkMissed
	assert.Len(t, long.Normalize(), SlotCount)

	assert.Equal(t, MarkUnset, short.At(30))
	assert.Equal(t, MarkUnset, short.At(-1))
}

func TestAttendanceJSON(t *testing.T) {
	visits := NewAttendance()[:4]
	visits[0] = MarkVisited
	visits[1] = MarkMissed

	data, err := json.Marshal(visits)
	require.NoError(t, err)
	assert.JSONEq(t, `[true,false,null,null]`, string(data))

	var decoded Attendance
	require.NoError(t, json.Unmarshal([]byte(`[true,"missed",null,"visited"]`), &decoded))
	assert.Equal(t, Attendance{MarkVisited, MarkMissed, MarkUnset, MarkVisited}, decoded)

	assert.Error(t, json.Unmarshal([]byte(`["maybe"]`), &decoded))
}

func TestParseMark(t *testing.T) {
	for in, want := range map[string]Mark{"": MarkUnset, "VISITED": MarkVisited, "missed": MarkMissed, "null": MarkUnset} {
		got, err := ParseMark(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMark("late")
	assert.Error(t, err)
}

func TestInferGraduationDate(t *testing.T) {
	today := time.Date(2026, time.October, 17, 15, 0, 0, 0, time.UTC)

	visits := NewAttendance()
	visits[1] = MarkVisited
	visits[3] = MarkVisited
	visits[4] = MarkMissed
	assert.Equal(t, "2024-01-22", InferGraduationDate("2024-01-01", visits, today))

	assert.Equal(t, "2026-10-17", InferGraduationDate("2024-01-01", NewAttendance(), today))
	assert.Equal(t, "2026-10-17", InferGraduationDate("", visits, today))
	assert.Equal(t, "2026-10-17", InferGraduationDate("next spring", visits, today))

	outside := NewAttendance()
	outside[30] = MarkVisited
	assert.Equal(t, SlotDate("2024-01-01", 30), InferGraduationDate("2024-01-01", outside, today))
}
