package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/jshufro/protoc-gen-suibox/lib"
)

func init() {
	register(command{name: "build", summary: "compile a Move package", run: (*App).build})
	register(command{name: "publish", summary: "publish a Move package", run: (*App).publish})
	register(command{name: "registry", summary: "create the shared registry of a module", run: (*App).registry})
	register(command{name: "call", summary: "run one move call", run: (*App).call})
	register(command{name: "resolve", summary: "print the first object a transaction created", run: (*App).resolve})
	register(command{name: "deploy", summary: "generate, build, publish and create registries", run: (*App).deploy})
	register(command{name: "doctor", summary: "check the toolchain and configuration", run: (*App).doctor})
}

func (a *App) build(ctx context.Context, args []string) error {
	fs := a.flagSet("build")
	cfgPath := configFlag(fs)
	dir := fs.String("dir", ".", "Move package directory")
	if err := parse(fs, args); err != nil {
		return err
	}

	m, _, err := a.manager(*cfgPath)
	if err != nil {
		return err
	}
	defer m.Close()

	modules, err := m.Build(ctx, *dir)
	if err != nil {
		return err
	}
	for _, p := range modules {
		fmt.Fprintln(a.Stdout, p)
	}
	return nil
}

func (a *App) publish(ctx context.Context, args []string) error {
	fs := a.flagSet("publish")
	cfgPath := configFlag(fs)
	dir := fs.String("dir", ".", "Move package directory")
	if err := parse(fs, args); err != nil {
		return err
	}

	m, _, err := a.manager(*cfgPath)
	if err != nil {
		return err
	}
	defer m.Close()

	res, err := m.Publish(ctx, *dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Stdout, "package %s\ndigest %s\n", res.PackageID, res.Digest)
	return nil
}

func (a *App) registry(ctx context.Context, args []string) error {
	fs := a.flagSet("registry")
	cfgPath := configFlag(fs)
	dir := fs.String("dir", ".", "Move package directory")
	module := fs.String("module", "", "module to call create_registry on (required)")
	pkg := fs.String("package-id", "", "published package id (required)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *module == "" || *pkg == "" {
		return usagef("-module and -package-id are required")
	}

	m, _, err := a.manager(*cfgPath)
	if err != nil {
		return err
	}
	defer m.Close()

	res, err := m.CreateRegistry(ctx, *module, *dir, *pkg)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Stdout, "registry %s\ndigest %s\n", res.CreatedObjectID, res.Digest)
	return nil
}

func (a *App) call(ctx context.Context, args []string) error {
	fs := a.flagSet("call")
	cfgPath := configFlag(fs)
	var call lib.Call
	fs.StringVar(&call.Module, "module", "", "module name (required)")
	fs.StringVar(&call.Function, "function", "", "function name (required)")
	fs.StringVar(&call.PackageID, "package-id", "", "published package id (required)")
	fs.StringVar(&call.WorkingDir, "dir", "", "directory to run the client in")
	fs.StringVar(&call.AssignName, "assign", "", "assign the result to this name and transfer it")
	fs.StringVar(&call.TransferTo, "transfer-to", "", "address receiving the assigned result, default the sender")
	if err := parse(fs, args); err != nil {
		return err
	}
	if call.Module == "" || call.Function == "" {
		return usagef("-module and -function are required")
	}
	for _, raw := range fs.Args() {
		call.Args = append(call.Args, ParseValue(raw))
	}

	m, cfg, err := a.manager(*cfgPath)
	if err != nil {
		return err
	}
	defer m.Close()

	if call.AssignName != "" {
		call.AssignAndTransfer = true
		if call.TransferTo == "" {
			call.TransferTo = cfg.SenderAddress
		}
	}
	digest, err := m.MoveCall(ctx, call)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.Stdout, digest)
	return nil
}

// ParseValue turns a command line argument into a move-call value: unsigned
// decimals become integers, true and false booleans, and anything else a
// string. A leading = forces a string.
func ParseValue(raw string) any {
	if s, ok := strings.CutPrefix(raw, "="); ok {
		return s
	}
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseUint(raw, 10, 64); err == nil {
		return n
	}
	if n, ok := new(big.Int).SetString(raw, 10); ok && n.Sign() >= 0 {
		return n
	}
	return raw
}

func (a *App) resolve(ctx context.Context, args []string) error {
	fs := a.flagSet("resolve")
	cfgPath := configFlag(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usagef("expected exactly one transaction digest")
	}

	m, _, err := a.manager(*cfgPath)
	if err != nil {
		return err
	}
	defer m.Close()

	id, err := m.ResolveCreatedObject(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Fprintln(a.Stdout, id)
	return nil
}

type deployment struct {
	PackageID  string            `json:"package_id"`
	Digest     string            `json:"digest"`
	Modules    []string          `json:"modules"`
	Registries map[string]string `json:"registries"`
}

func (a *App) deploy(ctx context.Context, args []string) error {
	fs := a.flagSet("deploy")
	cfgPath := configFlag(fs)
	var g generateFlags
	g.register(fs)
	if err := parse(fs, args); err != nil {
		return err
	}

	m, cfg, err := a.manager(*cfgPath)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := cfg.Validate(); err != nil {
		return err
	}

	schemas, err := g.run(fs.Args())
	if err != nil {
		return err
	}
	if len(schemas) == 0 {
		return usagef("no annotated entities found")
	}

	dir := g.moveDir()
	modules, err := m.Build(ctx, dir)
	if err != nil {
		return err
	}
	pub, err := m.Publish(ctx, dir)
	if err != nil {
		return err
	}

	out := deployment{PackageID: pub.PackageID, Digest: pub.Digest, Modules: modules, Registries: make(map[string]string)}
	for _, s := range schemas {
		res, err := m.CreateRegistry(ctx, s.StructName, dir, pub.PackageID)
		if err != nil {
			return fmt.Errorf("registry for %s: %w", s.StructName, err)
		}
		out.Registries[s.StructName] = res.CreatedObjectID
	}

	enc := json.NewEncoder(a.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func (a *App) doctor(ctx context.Context, args []string) error {
	fs := a.flagSet("doctor")
	cfgPath := configFlag(fs)
	if err := parse(fs, args); err != nil {
		return err
	}

	m, cfg, err := a.manager(*cfgPath)
	if err != nil {
		return err
	}
	defer m.Close()

	v, err := m.CheckToolchain(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Stdout, "sui %s ok\n", v)
	if err := cfg.Validate(); err != nil {
		return err
	}
	fmt.Fprintf(a.Stdout, "config ok (sender %s, fullnode %s)\n", cfg.SenderAddress, cfg.FullnodeURL)
	return nil
}
