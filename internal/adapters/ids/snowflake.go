package ids

import (
	"fmt"

	"github.com/bwmarrin/snowflake"

	"eventra/internal/domain"
)

const transactionPrefix = "tran_"

type snowflakeGenerator struct {
	node *snowflake.Node
}

// NewTransactionIDs returns a generator of "tran_<snowflake>" ids. Every API
// instance needs a distinct node number in [0, 1023].
func NewTransactionIDs(node int64) (domain.TransactionIDGenerator, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", node, err)
	}
	return &snowflakeGenerator{node: n}, nil
}

func (g *snowflakeGenerator) Next() string {
	return transactionPrefix + g.node.Generate().String()
}
