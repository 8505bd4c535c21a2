package orders

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"orderbot/lib/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func writeOrders(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "orders.csv")
	err := os.WriteFile(path, []byte(contents), 0644)
	require.NoError(t, err)
	return path
}

func TestRead(t *testing.T) {
	setup, cleanup := testutil.SetupTask(t, testutil.TaskParams{Name: "services/orders"})
	defer cleanup()

	path := writeOrders(t, setup.Dir,
		"Order number,Head,Body,Legs,Address\n"+
			"1,1,2,3,address one\n"+
			"2,4,4,6,address two\n")

	rows, err := Read(context.Background(), path)
	require.NoError(t, err)

	want := []Order{
		{OrderNumber: "1", Head: "1", Body: "2", Legs: "3", Address: "address one"},
		{OrderNumber: "2", Head: "4", Body: "4", Legs: "6", Address: "address two"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("unexpected rows (-want +got):\n%s", diff)
	}
}

func TestReadColumnsReordered(t *testing.T) {
	setup, cleanup := testutil.SetupTask(t, testutil.TaskParams{Name: "services/orders"})
	defer cleanup()

	// mapping is by header name, so shuffled columns must still parse
	path := writeOrders(t, setup.Dir,
		"Address,Legs,Body,Head,Order number\n"+
			"somewhere,3,2,1,9\n")

	rows, err := Read(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, Order{
		OrderNumber: "9", Head: "1", Body: "2", Legs: "3", Address: "somewhere",
	}, rows[0])
}

func TestReadMissingColumn(t *testing.T) {
	setup, cleanup := testutil.SetupTask(t, testutil.TaskParams{Name: "services/orders"})
	defer cleanup()

	path := writeOrders(t, setup.Dir,
		"Order number,Head,Body,Legs\n"+
			"1,1,2,3\n")

	_, err := Read(context.Background(), path)
	var malformed *MalformedInputError
	require.ErrorAs(t, err, &malformed)
}

func TestReadEmptyField(t *testing.T) {
	setup, cleanup := testutil.SetupTask(t, testutil.TaskParams{Name: "services/orders"})
	defer cleanup()

	path := writeOrders(t, setup.Dir,
		"Order number,Head,Body,Legs,Address\n"+
			"1,1,2,3,address one\n"+
			"2,4,4,6,\n")

	_, err := Read(context.Background(), path)
	var malformed *MalformedInputError
	require.ErrorAs(t, err, &malformed)
	require.Equal(t, 3, malformed.Row)
	require.Contains(t, malformed.Reason, "Address")
}

func TestReadDuplicateOrderNumber(t *testing.T) {
	setup, cleanup := testutil.SetupTask(t, testutil.TaskParams{Name: "services/orders"})
	defer cleanup()

	path := writeOrders(t, setup.Dir,
		"Order number,Head,Body,Legs,Address\n"+
			"1,1,2,3,address one\n"+
			"1,4,4,6,address two\n")

	_, err := Read(context.Background(), path)
	var malformed *MalformedInputError
	require.ErrorAs(t, err, &malformed)
	require.Contains(t, malformed.Reason, "duplicate")
}
