package state

import (
	"bytes"
	"testing"

	"github.com/leapstack-labs/querycanvas/internal/schema"
	"github.com/leapstack-labs/querycanvas/internal/secret"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnection_ConnInfo(t *testing.T) {
	box, err := secret.New(bytes.Repeat([]byte{7}, secret.KeySize))
	require.NoError(t, err)

	sealed, err := box.Seal("hunter2")
	require.NoError(t, err)

	c := &Connection{Name: "shop", Type: "mysql", Host: "db", Port: 3306, Database: "shop", Username: "reader", EncryptedPassword: sealed}
	info, err := c.ConnInfo(box)
	require.NoError(t, err)
	assert.Equal(t, schema.ConnInfo{
		Dialect:  schema.DialectMySQL,
		Host:     "db",
		Port:     3306,
		Database: "shop",
		User:     "reader",
		Password: "hunter2",
	}, info)

	other, err := secret.New(bytes.Repeat([]byte{8}, secret.KeySize))
	require.NoError(t, err)
	_, err = c.ConnInfo(other)
	assert.ErrorContains(t, err, "failed to unseal password")

	c.Type = "oracle"
	_, err = c.ConnInfo(box)
	assert.Error(t, err)
}
