package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"

	"nikand.dev/go/cli"
	"nikand.dev/go/cli/flag"
	"nikand.dev/go/wasmcheck"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
	"tlog.app/go/tlog/ext/tlflag"
	"tlog.app/go/tlog/tlio"
	"tlog.app/go/tlog/tlwire"
)

type (
	bytearr []byte
)

func main() {
	validate := &cli.Command{
		Name:        "validate",
		Description: "decode and validate modules",
		Args:        cli.Args{},
		Action:      validateRun,
		Flags: []*cli.Flag{
			cli.NewFlag("workers,j", 1, "validate function bodies in parallel"),
			cli.NewFlag("max-depth", wasmcheck.DefaultMaxDepth, "block nesting limit"),
		},
	}

	dump := &cli.Command{
		Name:   "dump",
		Args:   cli.Args{},
		Action: dumpRun,
	}

	crosscheck := &cli.Command{
		Name:        "crosscheck",
		Description: "compare validation verdict with wazero",
		Args:        cli.Args{},
		Action:      crosscheckRun,
		Flags: []*cli.Flag{
			cli.NewFlag("workers,j", 1, "validate function bodies in parallel"),
			cli.NewFlag("max-depth", wasmcheck.DefaultMaxDepth, "block nesting limit"),
		},
	}

	app := &cli.Command{
		Name:        "wasmtool",
		Description: "tool to check wasm modules",
		Before:      before,
		Flags: []*cli.Flag{
			cli.NewFlag("log", "stderr?dm", "log output file (or stderr)"),
			cli.NewFlag("verbosity,v", "", "logger verbosity topics"),
			cli.NewFlag("debug", "", "debug address", flag.Hidden),
			cli.FlagfileFlag,
			cli.HelpFlag,
		},
		Commands: []*cli.Command{
			validate,
			dump,
			crosscheck,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func before(c *cli.Command) error {
	w, err := tlflag.OpenWriter(c.String("log"))
	if err != nil {
		return errors.Wrap(err, "open log file")
	}

	err = tlio.WalkWriter(w, func(w io.Writer) error {
		c, ok := w.(*tlog.ConsoleWriter)
		if !ok {
			return nil
		}

		c.StringOnNewLineMinLen = 16

		return nil
	})
	if err != nil {
		return errors.Wrap(err, "walk writer")
	}

	tlog.DefaultLogger = tlog.New(w)

	tlog.SetVerbosity(c.String("verbosity"))

	if q := c.String("debug"); q != "" {
		l, err := net.Listen("tcp", q)
		if err != nil {
			return errors.Wrap(err, "listen debug")
		}

		tlog.Printw("start debug interface", "addr", l.Addr())

		go func() {
			err := http.Serve(l, nil)
			if err != nil {
				tlog.Printw("debug", "addr", q, "err", err, "", tlog.Fatal)
				panic(err)
			}
		}()
	}

	return nil
}

func validator(c *cli.Command) *wasmcheck.Validator {
	return &wasmcheck.Validator{
		Workers:  c.Int("workers"),
		MaxDepth: c.Int("max-depth"),
	}
}

func validateRun(c *cli.Command) (err error) {
	v := validator(c)

	var invalid int

	for _, a := range c.Args {
		err := validateFile(v, a)
		if err != nil {
			tlog.Printw("invalid", "file", a, "err", err)

			invalid++
		}
	}

	if invalid != 0 {
		return errors.New("%d of %d modules invalid", invalid, len(c.Args))
	}

	return nil
}

func validateFile(v *wasmcheck.Validator, name string) error {
	data, err := os.ReadFile(name)
	if err != nil {
		return errors.Wrap(err, "read file")
	}

	d := wasmcheck.Decoder{}
	d.MaxDepth = v.MaxDepth

	var m wasmcheck.Module

	err = d.Module(data, &m)
	if err != nil {
		return errors.Wrap(err, "decode")
	}

	mt, err := v.Module(&m)
	if err != nil {
		return errors.Wrap(err, "validate")
	}

	tlog.Printw("valid", "file", name, "funcs", len(m.Funcs), "imports", len(mt.Imports), "exports", len(mt.Exports))

	for i, et := range mt.Imports {
		tlog.V("types").Printw("import", "i", i, "module", m.Imports[i].Module, "name", m.Imports[i].Name, "type", et.String())
	}

	for i, et := range mt.Exports {
		tlog.V("types").Printw("export", "i", i, "name", m.Exports[i].Name, "type", et.String())
	}

	return nil
}

func crosscheckRun(c *cli.Command) (err error) {
	ctx := context.Background()
	v := validator(c)

	var disagree int

	for _, a := range c.Args {
		data, err := os.ReadFile(a)
		if err != nil {
			return errors.Wrap(err, "read file")
		}

		res, err := wasmcheck.CrossCheck(ctx, data, v)
		if err != nil {
			return errors.Wrap(err, "%v", a)
		}

		tlog.Printw("crosscheck", "file", a, "agree", res.Agree(), "err", res.Err, "wazero", res.Wazero)

		if !res.Agree() {
			disagree++
		}
	}

	if disagree != 0 {
		return errors.New("%d of %d modules disagree", disagree, len(c.Args))
	}

	return nil
}

func dumpRun(c *cli.Command) (err error) {
	var d wasmcheck.Decoder

	for _, a := range c.Args {
		err := func() error {
			data, err := os.ReadFile(a)
			if err != nil {
				return errors.Wrap(err, "read file")
			}

			var ids bytearr

			for i := len(wasmcheck.Magic) + 4; i < len(data); {
				var id byte

				id, _, i, err = d.Section(data, i)
				if err != nil {
					return errors.Wrap(err, "section")
				}

				ids = append(ids, id)
			}

			m := &wasmcheck.Module{}

			err = d.Module(data, m)
			if err != nil {
				return errors.Wrap(err, "decode")
			}

			tlog.Printw("module", "start", m.Start, "sections", ids)

			for i, v := range m.Imports {
				tlog.Printw("import", "i", i, "mod", v.Module, "name", v.Name, "desc", v.Desc.String())
			}

			for i, v := range m.Types {
				tlog.Printw("type", "i", i, "params", wasmcheck.ResultType(v.Params), "results", wasmcheck.ResultType(v.Results))
			}

			for i, v := range m.Tables {
				tlog.Printw("table", "i", i, "elem", v.Type.Elem.String(), "limits", v.Type.Limits.String())
			}

			for i, v := range m.Mems {
				tlog.Printw("memory", "i", i, "limits", v.Type.Limits.String())
			}

			for i, v := range m.Globals {
				tlog.Printw("global", "i", i, "type", v.Type.String(), "init", v.Init)
			}

			for i, v := range m.Exports {
				tlog.Printw("export", "i", i, "name", v.Name, "desc", v.Desc.String())
			}

			for i, v := range m.Elems {
				tlog.Printw("elem", "i", i, "table", v.Table, "offset", v.Offset, "funcs", v.Init)
			}

			for i, v := range m.Funcs {
				tlog.Printw("func", "i", i, "type", v.Type, "locals", wasmcheck.ResultType(v.Locals), "body", v.Body)
			}

			for i, v := range m.Data {
				tlog.Printw("data", "i", i, "mem", v.Mem, "offset", v.Offset, "init", v.Init)
			}

			for i, v := range m.Custom {
				tlog.Printw("custom", "i", i, "name", v.Name, "data", v.Data)
			}

			return nil
		}()
		if err != nil {
			return errors.Wrap(err, "%v", a)
		}
	}

	return nil
}

func (a bytearr) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendArray(b, len(a))

	for _, v := range a {
		b = e.AppendInt(b, int(v))
	}

	return b
}
