package rpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/ahnlich-go/internal/engine"
	"github.com/dreamware/ahnlich-go/internal/types"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	h := engine.NewHandler()
	return NewServer(h, "localhost:1369", "test", 100)
}

func TestPingAndInfoServer(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, Pong{}, s.Ping())

	info := s.InfoServer()
	assert.Equal(t, "localhost:1369", info.Address)
	assert.Equal(t, 100, info.Remaining)
}

func TestCreateStoreThenSetThenGetKeyRoundtrip(t *testing.T) {
	s := newTestServer(t)
	err := s.CreateStore(CreateStoreRequest{Store: "main", Dimension: 2, ErrorIfExists: true})
	require.NoError(t, err)

	setResp, err := s.Set(SetRequest{
		Store:  "main",
		Inputs: []engine.Entry{{Key: types.StoreKey{1, 0}, Value: types.StoreValue{}}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, setResp.Upsert.Inserted)

	getResp, err := s.GetKey(GetKeyRequest{Store: "main", Keys: []types.StoreKey{{1, 0}}})
	require.NoError(t, err)
	require.Len(t, getResp.Entries, 1)
}

func TestPipelineIsolatesFailures(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.CreateStore(CreateStoreRequest{Store: "main", Dimension: 2, ErrorIfExists: true}))

	result := s.Pipeline([]PipelineRequest{
		{Set: &SetRequest{Store: "main", Inputs: []engine.Entry{{Key: types.StoreKey{1, 0}, Value: types.StoreValue{}}}}},
		{Set: &SetRequest{Store: "missing", Inputs: []engine.Entry{{Key: types.StoreKey{1, 0}}}}},
		{Ping: &struct{}{}},
	})

	require.Len(t, result.Responses, 3)
	assert.Nil(t, result.Responses[0].Err)
	require.NotNil(t, result.Responses[1].Err)
	assert.Nil(t, result.Responses[2].Err)
	assert.NotNil(t, result.Responses[2].Response.Pong)
}

func TestDropStoreReportsDeletedCount(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.CreateStore(CreateStoreRequest{Store: "main", Dimension: 2}))

	resp, err := s.DropStore(DropStoreRequest{Store: "main", ErrorIfNotExists: true})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.DeletedCount)

	_, err = s.DropStore(DropStoreRequest{Store: "main", ErrorIfNotExists: true})
	assert.Error(t, err)
}
