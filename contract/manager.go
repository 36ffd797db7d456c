// Package contract drives a generated Move package through build, publish and
// invocation. The sui CLI does the heavy lifting; package state lives in a
// Manager.
package contract

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jshufro/protoc-gen-suibox/codegen"
	"github.com/jshufro/protoc-gen-suibox/config"
	"github.com/jshufro/protoc-gen-suibox/internal/logger"
	"github.com/jshufro/protoc-gen-suibox/lib"
)

const (
	BuildTimeout = 30 * time.Second
	CallTimeout  = 5 * time.Minute

	defaultAssignName = "obj"
	tracerName        = "github.com/jshufro/protoc-gen-suibox/contract"
)

// PublishResult identifies a published package.
type PublishResult struct {
	PackageID string
	Digest    string
}

// CallResult is a move call and the first object it created.
type CallResult struct {
	Digest          string
	CreatedObjectID string
}

type Option func(*Manager)

func WithRunner(r Runner) Option { return func(m *Manager) { m.runner = r } }

func WithPublisher(p Publisher) Option { return func(m *Manager) { m.publisher = p } }

// WithSigner sets the signer of the default RPC publisher. It has no effect
// together with WithPublisher.
func WithSigner(s Signer) Option { return func(m *Manager) { m.signer = s } }

func WithLogger(l *slog.Logger) Option { return func(m *Manager) { m.log = l } }

func WithHTTPClient(c *http.Client) Option { return func(m *Manager) { m.httpClient = c } }

func WithTracer(t trace.Tracer) Option { return func(m *Manager) { m.tracer = t } }

// Manager runs contract lifecycle operations for one configuration. It is safe
// for concurrent use; the stored package id is last write wins.
type Manager struct {
	cfg        config.Config
	runner     Runner
	publisher  Publisher
	signer     Signer
	rpc        *rpc.Client
	httpClient *http.Client
	log        *slog.Logger
	tracer     trace.Tracer

	packageID atomic.Pointer[string]
}

func NewManager(cfg *config.Config, opts ...Option) (*Manager, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	m := &Manager{cfg: *cfg}
	for _, opt := range opts {
		opt(m)
	}
	if m.cfg.SuiBinary == "" {
		m.cfg.SuiBinary = config.DefaultSuiBinary
	}
	if m.runner == nil {
		m.runner = ExecRunner{}
	}
	if m.log == nil {
		m.log = logger.Discard()
	}
	if m.tracer == nil {
		m.tracer = otel.Tracer(tracerName)
	}
	if m.httpClient == nil {
		m.httpClient = http.DefaultClient
	}
	if m.cfg.FullnodeURL != "" {
		client, err := rpc.DialHTTPWithClient(m.cfg.FullnodeURL, m.httpClient)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", m.cfg.FullnodeURL, err)
		}
		m.rpc = client
	}
	if m.publisher == nil && m.rpc != nil {
		m.publisher = &RPCPublisher{Client: m.rpc, Signer: m.signer}
	}
	return m, nil
}

// Close releases the RPC client.
func (m *Manager) Close() {
	if m.rpc != nil {
		m.rpc.Close()
	}
}

// PackageID is the id of the last successful publish, or empty.
func (m *Manager) PackageID() string {
	if p := m.packageID.Load(); p != nil {
		return *p
	}
	return ""
}

func (m *Manager) setPackageID(id string) {
	m.packageID.Store(&id)
}

func (m *Manager) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "contract."+name, trace.WithAttributes(attrs...))
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// run executes inv and classifies failures as timeoutKind or failKind.
func (m *Manager) run(ctx context.Context, inv Invocation, timeoutKind, failKind error) (Output, error) {
	m.log.Debug("running command", "command", inv.String(), "dir", inv.Dir, "timeout", inv.Timeout)
	out, err := m.runner.Run(ctx, inv)
	switch {
	case err != nil:
		kind := failKind
		if errors.Is(err, context.DeadlineExceeded) {
			kind = timeoutKind
		}
		return out, &CommandError{Kind: kind, Command: inv.String(), ExitCode: out.ExitCode, Stdout: string(out.Stdout), Stderr: string(out.Stderr), Err: err}
	case out.ExitCode != 0:
		return out, &CommandError{Kind: failKind, Command: inv.String(), ExitCode: out.ExitCode, Stdout: string(out.Stdout), Stderr: string(out.Stderr)}
	}
	m.log.Debug("command finished", "command", inv.String(), "stderr", string(out.Stderr))
	return out, nil
}

// Build compiles the Move package in dir and returns its bytecode modules.
func (m *Manager) Build(ctx context.Context, dir string) (paths []string, err error) {
	ctx, span := m.start(ctx, "Build", attribute.String("dir", dir))
	defer func() { finish(span, err) }()

	if err := m.cfg.ValidateToolchain(); err != nil {
		return nil, err
	}
	inv := Invocation{
		Executable: m.cfg.SuiBinary,
		Args:       []string{"move", "build", "--path", dir},
		Dir:        dir,
		Timeout:    BuildTimeout,
	}
	if _, err := m.run(ctx, inv, ErrBuildTimeout, ErrBuildFailed); err != nil {
		return nil, err
	}

	manifest, err := codegen.ReadManifest(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildFailed, err)
	}
	bytecodeDir := filepath.Join(dir, "build", manifest.Package.Name, "bytecode_modules")
	paths, err = filepath.Glob(filepath.Join(bytecodeDir, "*.mv"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildFailed, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no bytecode modules in %s", ErrBuildFailed, bytecodeDir)
	}
	sort.Strings(paths)

	m.log.Info("build finished", "dir", dir, "package", manifest.Package.Name, "modules", len(paths))
	span.SetAttributes(attribute.Int("modules", len(paths)))
	return paths, nil
}

// Publish publishes the package in dir with the sui CLI. Every call creates a
// new package.
func (m *Manager) Publish(ctx context.Context, dir string) (res PublishResult, err error) {
	ctx, span := m.start(ctx, "Publish", attribute.String("dir", dir))
	defer func() { finish(span, err) }()

	if err := m.cfg.Validate(); err != nil {
		return PublishResult{}, err
	}
	inv := Invocation{
		Executable: m.cfg.SuiBinary,
		Args: []string{
			"client", "publish", dir,
			"--gas", m.cfg.GasObject,
			"--gas-budget", strconv.FormatUint(m.cfg.GasBudget, 10),
			"--json",
		},
		Dir:     dir,
		Timeout: CallTimeout,
	}
	out, err := m.run(ctx, inv, ErrCallTimeout, ErrCallFailed)
	if err != nil {
		return PublishResult{}, err
	}

	resp, err := parseTxResponse(out.Stdout)
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

	m.setPackageID(pkg)
	m.log.Info("package published", "package_id", pkg, "digest", resp.Digest)
	span.SetAttributes(attribute.String("package_id", pkg))
	return PublishResult{PackageID: pkg, Digest: resp.Digest}, nil
}

// PublishModules publishes compiled modules through the configured Publisher
// and blocks until the node has executed the transaction. All failures are
// *PublishError.
func (m *Manager) PublishModules(ctx context.Context, paths []string) (res PublishResult, err error) {
	ctx, span := m.start(ctx, "PublishModules", attribute.Int("modules", len(paths)))
	defer func() { finish(span, err) }()

	req := PublishRequest{
		Sender:       m.cfg.SenderAddress,
		Dependencies: DefaultDependencies,
		GasObject:    m.cfg.GasObject,
		GasBudget:    m.cfg.GasBudget,
		GasPrice:     m.cfg.GasPrice,
	}
	if err := m.cfg.Validate(); err != nil {
		return PublishResult{}, publishError(req, err)
	}
	if len(paths) == 0 {
		return PublishResult{}, publishError(req, invalidf("no modules to publish"))
	}
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return PublishResult{}, publishError(req, err)
		}
		req.Modules = append(req.Modules, base64.StdEncoding.EncodeToString(b))
	}
	if m.publisher == nil {
		return PublishResult{}, publishError(req, errors.New("no publisher configured"))
	}

	m.log.Info("publishing modules", "modules", len(req.Modules), "gas_object", req.GasObject, "gas_budget", req.GasBudget, "gas_price", req.GasPrice)
	res, err = m.publisher.Publish(ctx, req)
	if err != nil {
		err = publishError(req, err)
		m.log.Error("publish failed", "sender", req.Sender, "gas_object", req.GasObject, "error", err)
		return PublishResult{}, err
	}

	m.setPackageID(res.PackageID)
	m.log.Info("package published", "package_id", res.PackageID, "digest", res.Digest)
	return res, nil
}

// PublishModulesAsync runs PublishModules in the background.
func (m *Manager) PublishModulesAsync(ctx context.Context, paths []string) *Task[PublishResult] {
	return startTask(ctx, func(ctx context.Context) (PublishResult, error) {
		return m.PublishModules(ctx, paths)
	})
}

// CreateRegistry calls create_registry on module and resolves the shared
// registry object it created. The digest is returned even when resolution
// fails.
func (m *Manager) CreateRegistry(ctx context.Context, module, dir, packageID string) (res CallResult, err error) {
	ctx, span := m.start(ctx, "CreateRegistry", attribute.String("module", module))
	defer func() { finish(span, err) }()

	digest, err := m.MoveCall(ctx, lib.Call{
		Module:     module,
		Function:   "create_registry",
		WorkingDir: dir,
		PackageID:  packageID,
	})
	if err != nil {
		return CallResult{}, err
	}
	res.Digest = digest

	res.CreatedObjectID, err = m.ResolveCreatedObject(ctx, digest)
	if err != nil {
		return res, err
	}
	m.log.Info("registry created", "module", module, "registry_id", res.CreatedObjectID, "digest", digest)
	return res, nil
}

// MoveCall runs one move call through `sui client ptb` and returns the
// transaction digest. Arguments are validated before any process starts.
func (m *Manager) MoveCall(ctx context.Context, call lib.Call) (digest string, err error) {
	ctx, span := m.start(ctx, "MoveCall",
		attribute.String("module", call.Module),
		attribute.String("function", call.Function))
	defer func() { finish(span, err) }()

	inv, err := m.moveCallInvocation(call)
	if err != nil {
		return "", err
	}
	out, err := m.run(ctx, inv, ErrCallTimeout, ErrCallFailed)
	if err != nil {
		return "", err
	}

	resp, err := parseTxResponse(out.Stdout)
	if err != nil {
		return "", err
	}
	if err := resp.checkStatus(true); err != nil {
		return "", err
	}
	digest, err = resp.digest()
	if err != nil {
		return "", err
	}
	m.log.Info("move call executed", "module", call.Module, "function", call.Function, "digest", digest)
	return digest, nil
}

func (m *Manager) moveCallInvocation(call lib.Call) (Invocation, error) {
	if err := m.cfg.Validate(); err != nil {
		return Invocation{}, err
	}
	if call.Module == "" {
		return Invocation{}, invalidf("module is required")
	}
	if call.Function == "" {
		return Invocation{}, invalidf("function is required")
	}
	pkg := call.PackageID
	if pkg == "" {
		pkg = m.PackageID()
	}
	if pkg == "" {
		return Invocation{}, invalidf("package id is required before the package is published")
	}
	if call.AssignAndTransfer && call.TransferTo == "" {
		return Invocation{}, invalidf("transfer address is required when assigning and transferring")
	}

	rendered, err := FormatArgs(call.Args)
	if err != nil {
		return Invocation{}, err
	}

	args := append([]string{"client", "ptb", "--move-call", pkg + "::" + call.Module + "::" + call.Function}, rendered...)
	if call.AssignAndTransfer {
		name := call.AssignName
		if name == "" {
			name = defaultAssignName
		}
		args = append(args, "--assign", name, "--transfer-objects", "["+name+"]", "@"+call.TransferTo)
	}
	args = append(args, "--gas-budget", strconv.FormatUint(m.cfg.GasBudget, 10), "--json")

	return Invocation{Executable: m.cfg.SuiBinary, Args: args, Dir: call.WorkingDir, Timeout: CallTimeout}, nil
}

// ResolveCreatedObject asks the full node for the transaction and returns the
// id of the first object it created.
func (m *Manager) ResolveCreatedObject(ctx context.Context, digest string) (id string, err error) {
	ctx, span := m.start(ctx, "ResolveCreatedObject", attribute.String("digest", digest))
	defer func() { finish(span, err) }()

	if digest == "" {
		return "", invalidf("digest is required")
	}
	if err := m.cfg.ValidateNetwork(); err != nil {
		return "", err
	}
	if m.rpc == nil {
		return "", &RPCError{Method: "sui_getTransactionBlock", Err: errors.New("no rpc client")}
	}

	const method = "sui_getTransactionBlock"
	var resp txResponse
	opts := map[string]bool{"showEffects": true, "showObjectChanges": true}
	if err := m.rpc.CallContext(ctx, &resp, method, digest, opts); err != nil {
		return "", rpcError(method, err)
	}
	if resp.Digest == "" {
		resp.Digest = digest
	}
	return resp.createdObject()
}

var _ lib.Caller = (*Manager)(nil)
