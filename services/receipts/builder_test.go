package receipts

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"orderbot/lib/testutil"
	"orderbot/services/orders"

	"github.com/stretchr/testify/require"
)

type fakeConfirmation struct {
	orderNumber string
	receiptHTML string
	png         []byte
	snapErr     error
}

func (f *fakeConfirmation) OrderNumber() string { return f.orderNumber }
func (f *fakeConfirmation) ReceiptHTML() string { return f.receiptHTML }
func (f *fakeConfirmation) Snapshot(context.Context) ([]byte, error) {
	return f.png, f.snapErr
}

func tinyPng(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

var testOrder = orders.Order{
	OrderNumber: "7", Head: "1", Body: "2", Legs: "3", Address: "some address",
}

const testReceiptHTML = `<h3>RobotSpareBin Industries Inc</h3><p>Roll-a-thor head<br>Peanut crusher body</p>`

func TestBuild(t *testing.T) {
	setup, cleanup := testutil.SetupTask(t, testutil.TaskParams{Name: "services/receipts"})
	defer cleanup()
	builder := NewBuilder(setup.Dir)

	conf := &fakeConfirmation{
		orderNumber: "7",
		receiptHTML: testReceiptHTML,
		png:         tinyPng(t),
	}
	artifact, err := builder.Build(context.Background(), testOrder, conf)
	require.NoError(t, err)
	require.Equal(t, "7", artifact.OrderNumber)
	require.Equal(t, filepath.Join(setup.Dir, "order_7.pdf"), artifact.Path)

	info, err := os.Stat(artifact.Path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))

	// the snapshot is a temporary file, it must not outlive Build
	_, err = os.Stat(filepath.Join(setup.Dir, "order_7.png"))
	require.True(t, os.IsNotExist(err))
}

func TestBuildCorruptSnapshot(t *testing.T) {
	setup, cleanup := testutil.SetupTask(t, testutil.TaskParams{Name: "services/receipts"})
	defer cleanup()
	builder := NewBuilder(setup.Dir)

	conf := &fakeConfirmation{
		orderNumber: "8",
		receiptHTML: testReceiptHTML,
		png:         []byte("not a png"),
	}
	order := testOrder
	order.OrderNumber = "8"
	_, err := builder.Build(context.Background(), order, conf)
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)

	// cleanup happens on the failure path too
	_, err = os.Stat(filepath.Join(setup.Dir, "order_8.png"))
	require.True(t, os.IsNotExist(err))
}

func TestBuildSnapshotFailure(t *testing.T) {
	setup, cleanup := testutil.SetupTask(t, testutil.TaskParams{Name: "services/receipts"})
	defer cleanup()
	builder := NewBuilder(setup.Dir)

	conf := &fakeConfirmation{
		orderNumber: "9",
		snapErr:     errors.New("element vanished"),
	}
	order := testOrder
	order.OrderNumber = "9"
	_, err := builder.Build(context.Background(), order, conf)
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	require.Equal(t, "9", renderErr.OrderNumber)
}
