package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_DeleteByPattern(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewClientFromRedis(db)

	mock.ExpectScan(0, "reputation:*", 100).SetVal([]string{"reputation:1.1.1.1", "reputation:2.2.2.2"}, 7)
	mock.ExpectDel("reputation:1.1.1.1", "reputation:2.2.2.2").SetVal(2)
	mock.ExpectScan(7, "reputation:*", 100).SetVal([]string{"reputation:3.3.3.3"}, 0)
	mock.ExpectDel("reputation:3.3.3.3").SetVal(1)

	n, err := c.DeleteByPattern(context.Background(), "reputation:*")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClient_SetGet(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewClientFromRedis(db)

	mock.ExpectSet("decision:1.2.3.4", "{}", time.Hour).SetVal("OK")
	mock.ExpectGet("decision:1.2.3.4").SetVal("{}")

	require.NoError(t, c.Set(context.Background(), "decision:1.2.3.4", "{}", time.Hour))
	v, err := c.Get(context.Background(), "decision:1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, "{}", v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClient_CountKeys(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewClientFromRedis(db)

	mock.ExpectScan(0, "decision:*", 100).SetVal([]string{"decision:1"}, 3)
	mock.ExpectScan(3, "decision:*", 100).SetVal([]string{"decision:2", "decision:3"}, 0)

	n, err := c.CountKeys(context.Background(), "decision:*")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
