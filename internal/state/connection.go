package state

import (
	"fmt"

	"github.com/leapstack-labs/querycanvas/internal/schema"
	"github.com/leapstack-labs/querycanvas/internal/secret"
)

// ConnInfo unseals the password and returns what is needed to dial the
// connection.
func (c *Connection) ConnInfo(box *secret.Box) (schema.ConnInfo, error) {
	dialect, err := schema.ParseDialect(c.Type)
	if err != nil {
		return schema.ConnInfo{}, err
	}

	var password string
	if c.EncryptedPassword != "" {
		password, err = box.Open(c.EncryptedPassword)
		if err != nil {
			return schema.ConnInfo{}, fmt.Errorf("failed to unseal password for connection %s: %w", c.Name, err)
		}
	}

	return schema.ConnInfo{
		Dialect:  dialect,
		Host:     c.Host,
		Port:     c.Port,
		Database: c.Database,
		User:     c.Username,
		Password: password,
	}, nil
}
