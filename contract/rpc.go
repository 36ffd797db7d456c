package contract

import (
	"context"
	"errors"
	"strconv"

	"github.com/ethereum/go-ethereum/rpc"
)

// Packages every published contract links against: the Move stdlib and the
// Sui framework.
var DefaultDependencies = []string{
	"0x0000000000000000000000000000000000000000000000000000000000000001",
	"0x0000000000000000000000000000000000000000000000000000000000000002",
}

const executeWaitForLocal = "WaitForLocalExecution"

var txResponseOptions = map[string]bool{
	"showEffects":       true,
	"showEvents":        true,
	"showInput":         true,
	"showObjectChanges": true,
}

// Signer signs base64 transaction bytes and returns the serialized signature.
// Key material never passes through this package.
type Signer interface {
	Sign(ctx context.Context, txBytes string) (string, error)
}

// SignerFunc adapts a function to Signer.
type SignerFunc func(ctx context.Context, txBytes string) (string, error)

func (f SignerFunc) Sign(ctx context.Context, txBytes string) (string, error) { return f(ctx, txBytes) }

// PublishRequest carries base64 module bytecode and the transaction
// parameters of a publish.
type PublishRequest struct {
	Sender       string
	Modules      []string
	Dependencies []string
	GasObject    string
	GasBudget    uint64
	GasPrice     uint64
}

// Publisher submits a publish transaction and reports the new package.
type Publisher interface {
	Publish(ctx context.Context, req PublishRequest) (PublishResult, error)
}

// RPCPublisher publishes through a full node: unsafe_publish builds the
// transaction, Signer signs it and sui_executeTransactionBlock submits it.
// Errors from the node are returned untouched so callers can tell API
// rejections apart.
type RPCPublisher struct {
	Client *rpc.Client
	Signer Signer
}

var errNoSigner = errors.New("no transaction signer configured")

func (p *RPCPublisher) Publish(ctx context.Context, req PublishRequest) (PublishResult, error) {
	if p.Signer == nil {
		return PublishResult{}, errNoSigner
	}

	var gas any
	if req.GasObject != "" {
		gas = req.GasObject
	}
	var tx struct {
		TxBytes string `json:"txBytes"`
	}
	err := p.Client.CallContext(ctx, &tx, "unsafe_publish",
		req.Sender, req.Modules, req.Dependencies, gas, strconv.FormatUint(req.GasBudget, 10))
	if err != nil {
		return PublishResult{}, err
	}
	if tx.TxBytes == "" {
		return PublishResult{}, &OutputError{Kind: ErrMalformedOutput, Msg: "unsafe_publish returned no transaction bytes"}
	}

	sig, err := p.Signer.Sign(ctx, tx.TxBytes)
	if err != nil {
		return PublishResult{}, err
	}

	var resp txResponse
	err = p.Client.CallContext(ctx, &resp, "sui_executeTransactionBlock",
		tx.TxBytes, []string{sig}, txResponseOptions, executeWaitForLocal)
	if err != nil {
		return PublishResult{}, err
	}
	if err := resp.checkStatus(false); err != nil {
		return PublishResult{}, err
	}
	pkg, err := resp.packageID()
	if err != nil {
		return PublishResult{}, err
	}
	return PublishResult{PackageID: pkg, Digest: resp.Digest}, nil
}

// rpcError maps transport, HTTP and JSON-RPC failures onto RPCError.
func rpcError(method string, err error) error {
	e := &RPCError{Method: method, Err: err}
	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		e.StatusCode = httpErr.StatusCode
		e.Body = string(httpErr.Body)
		return e
	}
	var apiErr rpc.Error
	if errors.As(err, &apiErr) {
		e.Code = apiErr.ErrorCode()
		e.Message = apiErr.Error()
	}
	return e
}

// publishError maps anything a Publisher returned onto PublishError.
func publishError(req PublishRequest, err error) error {
	var pe *PublishError
	if errors.As(err, &pe) {
		return pe
	}
	e := &PublishError{Kind: ErrPublishUnexpected, Sender: req.Sender, Gas: req.GasObject, Err: err}
	var apiErr rpc.Error
	if errors.As(err, &apiErr) {
		e.Kind = ErrPublishAPI
		e.Code = apiErr.ErrorCode()
		e.Message = apiErr.Error()
		var dataErr rpc.DataError
		if errors.As(err, &dataErr) {
			e.Data = dataErr.ErrorData()
		}
	}
	return e
}
