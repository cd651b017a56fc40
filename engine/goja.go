package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dop251/goja"

	"github.com/deepnoodle-ai/jsq/codec"
	"github.com/deepnoodle-ai/jsq/errz"
	"github.com/deepnoodle-ai/jsq/value"
)

// gojaEngine evaluates scripts with the goja JavaScript runtime. A fresh
// runtime is built for every job, so nothing persists across evaluations.
type gojaEngine struct{}

// New returns the goja-backed engine.
func New() Engine {
	return &gojaEngine{}
}

var (
	envNamePattern   = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	scriptRefPattern = regexp.MustCompile(`\$[A-Za-z0-9_]+`)
)

func (e *gojaEngine) Evaluate(ctx context.Context, job Job) (Result, error) {
	rt := goja.New()

	if err := bind(rt, job); err != nil {
		return Result{}, err
	}

	prog, err := compile(job)
	if err != nil {
		return Result{}, err
	}

	stop := interruptOnCancel(ctx, rt)
	defer stop()

	var res goja.Value
	switch job.Mode {
	case ExpressionBody:
		fnVal, runErr := rt.RunProgram(prog)
		if runErr != nil {
			return Result{}, classify(runErr)
		}
		fn, ok := goja.AssertFunction(fnVal)
		if !ok {
			return Result{}, errz.Compilef("script body did not evaluate to a function")
		}
		res, runErr = fn(goja.Undefined(), toJS(rt, job.Input))
		if runErr != nil {
			return Result{}, classify(runErr)
		}
	default:
		var runErr error
		res, runErr = rt.RunProgram(prog)
		if runErr != nil {
			return Result{}, classify(runErr)
		}
	}

	val, err := fromJS(res, map[*goja.Object]bool{})
	if err != nil {
		return Result{}, err
	}
	if val == nil {
		return Result{NoValue: true}, nil
	}
	return Result{Value: val}, nil
}

func compile(job Job) (*goja.Program, error) {
	src := job.Source
	if job.Mode == ExpressionBody {
		src = "($ =>\n" + src + "\n)"
	}
	name := job.Filename
	if name == "" {
		name = "script"
	}
	prog, err := goja.Compile(name, src, true)
	if err != nil {
		return nil, errz.Compilef("compiling script: %v", err)
	}
	return prog, nil
}

// bind installs the input binding, environment bindings, helpers, and the
// per-format parse/stringify globals.
func bind(rt *goja.Runtime, job Job) error {
	if err := rt.Set("$", toJS(rt, job.Input)); err != nil {
		return errz.Runtimef("binding input: %v", err)
	}
	for k, v := range job.Env {
		if !envNamePattern.MatchString(k) {
			// Ignore weird environment variable names.
			continue
		}
		if err := rt.Set("$"+k, v); err != nil {
			return errz.Runtimef("binding $%s: %v", k, err)
		}
	}
	// Predefine $-prefixed names the script references but the environment
	// does not supply, so an unset variable reads as undefined instead of
	// raising a ReferenceError.
	for _, ref := range scriptRefPattern.FindAllString(job.Source, -1) {
		if rt.Get(ref) == nil {
			if err := rt.Set(ref, goja.Undefined()); err != nil {
				return errz.Runtimef("binding %s: %v", ref, err)
			}
		}
	}

	rt.Set("read", func(path string) (string, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", errz.IOf("read: %v", err)
		}
		return string(data), nil
	})
	rt.Set("write", func(path string, v goja.Value) error {
		text, err := displayJS(v)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			return errz.IOf("write: %v", err)
		}
		return nil
	})
	rt.Set("print", func(v goja.Value) error {
		text, err := displayJS(v)
		if err != nil {
			return err
		}
		if job.Print != nil {
			fmt.Fprintln(job.Print, text)
		}
		return nil
	})

	// JSON is native to the engine; every other codec gets a global with the
	// same parse/stringify surface.
	for _, name := range []string{"yaml", "toml", "json5", "csv"} {
		c, err := codec.Get(name)
		if err != nil {
			return err
		}
		obj := rt.NewObject()
		obj.Set("parse", codecParse(rt, c))
		obj.Set("stringify", codecStringify(c))
		if err := rt.Set(strings.ToUpper(name), obj); err != nil {
			return errz.Runtimef("binding %s: %v", strings.ToUpper(name), err)
		}
	}
	return nil
}

func codecParse(rt *goja.Runtime, c *codec.Codec) func(string) (goja.Value, error) {
	return func(s string) (goja.Value, error) {
		v, err := c.Decode([]byte(s))
		if err != nil {
			return nil, err
		}
		return toJS(rt, v), nil
	}
}

func codecStringify(c *codec.Codec) func(goja.Value) (string, error) {
	return func(v goja.Value) (string, error) {
		val, err := fromJS(v, map[*goja.Object]bool{})
		if err != nil {
			return "", err
		}
		if val == nil {
			val = value.Null
		}
		data, err := c.Encode(val)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

// classify maps a goja run failure onto the error taxonomy.
func classify(err error) error {
	var ee *errz.Error
	if errors.As(err, &ee) {
		return ee
	}
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return errz.Runtimef("interrupted: %v", interrupted.Value())
	}
	var ex *goja.Exception
	if errors.As(err, &ex) {
		if thrown := ex.Value(); thrown != nil {
			if ee := thrownError(thrown); ee != nil {
				return ee
			}
			return errz.Runtimef("%s", thrown.String())
		}
	}
	return errz.Runtimef("%v", err)
}

// thrownError extracts the structured error from an uncaught helper failure.
// The runtime throws helper errors as GoError objects carrying the Go error on
// their value property; an error the script caught and rethrew as its own is a
// plain exception and stays a runtime error.
func thrownError(thrown goja.Value) *errz.Error {
	obj, ok := thrown.(*goja.Object)
	if !ok {
		return nil
	}
	var ee *errz.Error
	if e, isErr := obj.Export().(error); isErr && errors.As(e, &ee) {
		return ee
	}
	if v := obj.Get("value"); v != nil {
		if e, isErr := v.Export().(error); isErr && errors.As(e, &ee) {
			return ee
		}
	}
	return nil
}

func interruptOnCancel(ctx context.Context, rt *goja.Runtime) func() {
	if ctx == nil || ctx.Done() == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			rt.Interrupt(ctx.Err())
		case <-done:
		}
	}()
	return func() { close(done) }
}

// toJS converts a Value into the engine's representation.
func toJS(rt *goja.Runtime, v value.Value) goja.Value {
	switch v := v.(type) {
	case nil, *value.NullType:
		return goja.Null()
	case *value.Bool:
		return rt.ToValue(v.Value())
	case *value.Number:
		return rt.ToValue(v.Value())
	case *value.String:
		return rt.ToValue(v.Value())
	case *value.Sequence:
		items := make([]interface{}, v.Len())
		for i, item := range v.Items() {
			items[i] = toJS(rt, item)
		}
		return rt.NewArray(items...)
	case *value.Mapping:
		obj := rt.NewObject()
		for _, key := range v.Keys() {
			item, _ := v.Get(key)
			// Define an own data property rather than assigning, so keys
			// like __proto__ bind as data instead of hitting the inherited
			// accessor.
			obj.DefineDataProperty(key, toJS(rt, item),
				goja.FLAG_TRUE, goja.FLAG_TRUE, goja.FLAG_TRUE)
		}
		return obj
	}
	return goja.Undefined()
}

// fromJS normalizes an engine value into a Value tree. It returns nil with no
// error for values the engine's own JSON serialization omits: undefined,
// functions, and symbols. Cycles are an error, since Values are trees.
func fromJS(v goja.Value, seen map[*goja.Object]bool) (value.Value, error) {
	if v == nil || goja.IsUndefined(v) {
		return nil, nil
	}
	if goja.IsNull(v) {
		return value.Null, nil
	}
	switch exported := v.Export().(type) {
	case bool:
		return value.NewBool(exported), nil
	case int:
		return value.NewNumber(float64(exported)), nil
	case int64:
		return value.NewNumber(float64(exported)), nil
	case float64:
		return value.NewNumber(exported), nil
	case string:
		return value.NewString(exported), nil
	case time.Time:
		return value.NewString(exported.UTC().Format("2006-01-02T15:04:05.000Z")), nil
	}

	obj, ok := v.(*goja.Object)
	if !ok {
		return nil, nil
	}
	if _, isFn := goja.AssertFunction(obj); isFn {
		return nil, nil
	}
	if seen[obj] {
		return nil, errz.Runtimef("script result contains a cycle")
	}
	seen[obj] = true
	defer delete(seen, obj)

	if obj.ClassName() == "Array" {
		length := int(obj.Get("length").ToInteger())
		seq := value.NewSequence(make([]value.Value, 0, length))
		for i := 0; i < length; i++ {
			item, err := fromJS(obj.Get(strconv.Itoa(i)), seen)
			if err != nil {
				return nil, err
			}
			if item == nil {
				// Holes and unserializable items become null, as in JSON.
				item = value.Null
			}
			seq.Append(item)
		}
		return seq, nil
	}

	m := value.NewMapping()
	for _, key := range obj.Keys() {
		item, err := fromJS(obj.Get(key), seen)
		if err != nil {
			return nil, err
		}
		if item == nil {
			continue
		}
		m.Set(key, item)
	}
	return m, nil
}

// displayJS renders an engine value as display text for print and write.
func displayJS(v goja.Value) (string, error) {
	val, err := fromJS(v, map[*goja.Object]bool{})
	if err != nil {
		return "", err
	}
	if val == nil {
		return "undefined", nil
	}
	return val.Display(), nil
}
