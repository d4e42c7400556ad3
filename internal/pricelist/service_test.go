package pricelist

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/stockval/internal/csvrows"
	"github.com/cleared-dev/stockval/internal/kvstore"
)

const masterA = "Name,SKU,Desc,Rate\nWidget,A,x,1\n"
const masterB = "Name,SKU,Desc,Rate\nGadget,B,x,2\n"

type failingStore struct{ kvstore.Store }

func (failingStore) Put(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestLoad_ReplacesTable(t *testing.T) {
	ctx := context.Background()
	svc := NewService(kvstore.NewMemory(), false, nil)

	res, err := svc.Load(ctx, strings.NewReader(masterA))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Kept)
	assert.Equal(t, 1, res.Size)

	_, err = svc.Load(ctx, strings.NewReader(masterB))
	require.NoError(t, err)

	tbl, err := svc.Current(ctx)
	require.NoError(t, err)
	_, ok := tbl.Lookup("A")
	assert.False(t, ok, "reload must not merge")
	p, ok := tbl.Lookup("B")
	require.True(t, ok)
	assert.True(t, p.Equal(dec("2")))
}

func TestLoad_PersistsSnapshot(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()
	svc := NewService(store, false, nil)

	_, err := svc.Load(ctx, strings.NewReader(masterA))
	require.NoError(t, err)

	data, err := store.Get(ctx, SnapshotKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"A":1}`, string(data))
}

func TestCurrent_RestoresFromStore(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()

	_, err := NewService(store, false, nil).Load(ctx, strings.NewReader(masterB))
	require.NoError(t, err)

	fresh := NewService(store, false, nil)
	tbl, err := fresh.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len())
	_, ok := tbl.Lookup("B")
	assert.True(t, ok)
}

func TestCurrent_Missing(t *testing.T) {
	svc := NewService(kvstore.NewMemory(), false, nil)
	_, err := svc.Current(context.Background())
	assert.ErrorIs(t, err, ErrPriceTableMissing)

	ok, err := svc.Restore(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoad_ParseFailureKeepsTable(t *testing.T) {
	ctx := context.Background()
	svc := NewService(kvstore.NewMemory(), false, nil)
	_, err := svc.Load(ctx, strings.NewReader(masterA))
	require.NoError(t, err)

	_, err = svc.Load(ctx, iotest.ErrReader(errors.New("boom")))
	require.Error(t, err)
	assert.ErrorIs(t, err, csvrows.ErrParseFailure)

	tbl, err := svc.Current(ctx)
	require.NoError(t, err)
	_, ok := tbl.Lookup("A")
	assert.True(t, ok)
}

func TestLoad_PersistFailureKeepsTable(t *testing.T) {
	ctx := context.Background()
	mem := kvstore.NewMemory()
	svc := NewService(mem, false, nil)
	_, err := svc.Load(ctx, strings.NewReader(masterA))
	require.NoError(t, err)

	svc.store = failingStore{Store: mem}
	_, err = svc.Load(ctx, strings.NewReader(masterB))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	tbl, err := svc.Current(ctx)
	require.NoError(t, err)
	_, ok := tbl.Lookup("A")
	assert.True(t, ok)
}

func TestLoad_NilReader(t *testing.T) {
	svc := NewService(kvstore.NewMemory(), false, nil)
	_, err := svc.Load(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInputMissing)
}

func TestLoad_Strict(t *testing.T) {
	svc := NewService(kvstore.NewMemory(), true, nil)
	res, err := svc.Load(context.Background(), strings.NewReader("Name,SKU,Desc,Rate\n\"Big, red\",R1,x,\"$1,000\"\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Kept)

	tbl, err := svc.Current(context.Background())
	require.NoError(t, err)
	p, ok := tbl.Lookup("R1")
	require.True(t, ok)
	assert.True(t, p.Equal(dec("1000")))
}
