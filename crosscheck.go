package wasmcheck

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

type (
	// CrossCheckResult holds verdicts of this validator and of wazero on the same binary.
	CrossCheckResult struct {
		Err    error
		Wazero error
	}
)

// CrossCheck decodes and validates bin with v and compiles it with the wazero
// interpreter restricted to the 1.0 core features.
// The returned error is only for failures to run the check.
func CrossCheck(ctx context.Context, bin []byte, v *Validator) (res CrossCheckResult, err error) {
	var d Decoder
	var m Module

	res.Err = d.Module(bin, &m)
	if res.Err == nil {
		_, res.Err = v.Module(&m)
	}

	cfg := wazero.NewRuntimeConfigInterpreter().WithCoreFeatures(api.CoreFeaturesV1)

	r := wazero.NewRuntimeWithConfig(ctx, cfg)
	defer func() {
		e := r.Close(ctx)
		if err == nil && e != nil {
			err = errors.Wrap(e, "close runtime")
		}
	}()

	cm, werr := r.CompileModule(ctx, bin)
	if werr == nil {
		werr = cm.Close(ctx)
		if werr != nil {
			return res, errors.Wrap(werr, "close compiled module")
		}
	}

	if err = ctx.Err(); err != nil {
		return res, err
	}

	res.Wazero = werr

	tlog.V("crosscheck").Printw("crosscheck", "err", res.Err, "wazero", res.Wazero, "agree", res.Agree())

	return res, nil
}

// Agree reports whether both accepted or both rejected.
func (r CrossCheckResult) Agree() bool {
	return (r.Err == nil) == (r.Wazero == nil)
}
