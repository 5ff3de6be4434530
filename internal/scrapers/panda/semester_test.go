package panda

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCurrentSemester(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatal(err)
	}

	table := []struct {
		at       time.Time
		expected string
	}{
		{at: time.Date(2024, time.January, 10, 9, 0, 0, 0, tokyo), expected: "2023後期"},
		{at: time.Date(2024, time.March, 31, 23, 59, 0, 0, tokyo), expected: "2023後期"},
		{at: time.Date(2024, time.April, 1, 0, 0, 0, 0, tokyo), expected: "2024前期"},
		{at: time.Date(2024, time.August, 31, 12, 0, 0, 0, tokyo), expected: "2024前期"},
		{at: time.Date(2024, time.September, 1, 0, 0, 0, 0, tokyo), expected: "2024後期"},
		{at: time.Date(2024, time.December, 25, 0, 0, 0, 0, tokyo), expected: "2024後期"},
	}

	for _, row := range table {
		require.Equal(t, row.expected, CurrentSemester(row.at), row.at.String())
	}
}

func TestClientCurrentSemester(t *testing.T) {
	client, err := NewClient(ClientOptions{}, fixedClock(), nopTelemetry())
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, CurrentSemester(testNow), client.CurrentSemester())
}
