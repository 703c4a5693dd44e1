package operator

import (
	"context"
	"fmt"

	abci "github.com/cometbft/cometbft/abci/types"
	rpcclient "github.com/cometbft/cometbft/rpc/client"
	rpchttp "github.com/cometbft/cometbft/rpc/client/http"
)

// Node is the slice of a CometBFT node the operator talks to.
type Node interface {
	LatestHeight(ctx context.Context) (int64, error)
	Query(ctx context.Context, path string) (*abci.QueryResponse, error)
	// Broadcast submits tx to the mempool. A CheckTx rejection is an error.
	Broadcast(ctx context.Context, tx []byte) error
}

type rpcClient interface {
	rpcclient.ABCIClient
	rpcclient.StatusClient
}

type rpcNode struct {
	c rpcClient
}

// DialNode connects to the CometBFT RPC endpoint at remote
// (e.g. http://127.0.0.1:26657).
func DialNode(remote string) (Node, error) {
	c, err := rpchttp.New(remote)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", remote, err)
	}
	return rpcNode{c: c}, nil
}

func (n rpcNode) LatestHeight(ctx context.Context) (int64, error) {
	st, err := n.c.Status(ctx)
	if err != nil {
		return 0, fmt.Errorf("status: %w", err)
	}
	return st.SyncInfo.LatestBlockHeight, nil
}

func (n rpcNode) Query(ctx context.Context, path string) (*abci.QueryResponse, error) {
	res, err := n.c.ABCIQuery(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("abci_query %s: %w", path, err)
	}
	return &res.Response, nil
}

func (n rpcNode) Broadcast(ctx context.Context, tx []byte) error {
	res, err := n.c.BroadcastTxSync(ctx, tx)
	if err != nil {
		return fmt.Errorf("broadcast_tx_sync: %w", err)
	}
	if res.Code != 0 {
		return fmt.Errorf("tx rejected: codespace=%s code=%d log=%s", res.Codespace, res.Code, res.Log)
	}
	return nil
}
