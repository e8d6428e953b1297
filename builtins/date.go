package builtins

import (
	"context"
	"math"
	"time"

	"github.com/avmcore/avm/gc"
	"github.com/avmcore/avm/object"
	"github.com/avmcore/avm/value"
)

// installDate builds the Date intrinsic prototype (spec.md §4.H "Date:
// adjustment API with per-field optional inputs and short-circuit on
// missing fields... Field setters that encounter a non-finite input mark
// the date invalid. Year values < 100 are interpreted as 1900 + year in
// constructors and UTC."). Instances carry an object.DatePayload
// (spec.md §3).
func (h heap) installDate() (gc.Handle, *object.Object) {
	handle, proto := h.newPlainObject(gc.Handle{}, false)

	get := func(name string, extract func(time.Time) float64) {
		h.defineMethod(proto, name, func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
			o, _, ok := thisObject(h, this)
			if !ok {
				return value.Number(math.NaN()), nil
			}
			d, ok := o.Payload().(*object.DatePayload)
			if !ok || !d.Valid {
				return value.Number(math.NaN()), nil
			}
			return value.Number(extract(dateTime(d))), nil
		})
	}
	get("getFullYear", func(t time.Time) float64 { return float64(t.Year()) })
	get("getYear", func(t time.Time) float64 { return float64(t.Year() - 1900) })
	get("getMonth", func(t time.Time) float64 { return float64(int(t.Month()) - 1) })
	get("getDate", func(t time.Time) float64 { return float64(t.Day()) })
	get("getDay", func(t time.Time) float64 { return float64(int(t.Weekday())) })
	get("getHours", func(t time.Time) float64 { return float64(t.Hour()) })
	get("getMinutes", func(t time.Time) float64 { return float64(t.Minute()) })
	get("getSeconds", func(t time.Time) float64 { return float64(t.Second()) })
	get("getMilliseconds", func(t time.Time) float64 { return float64(t.Nanosecond() / 1e6) })
	get("getTimezoneOffset", func(t time.Time) float64 { _, off := t.Zone(); return float64(-off / 60) })

	h.defineMethod(proto, "getTime", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		o, _, ok := thisObject(h, this)
		if !ok {
			return value.Number(math.NaN()), nil
		}
		d, ok := o.Payload().(*object.DatePayload)
		if !ok || !d.Valid {
			return value.Number(math.NaN()), nil
		}
		return value.Number(float64(d.UnixMillis)), nil
	})

	h.defineMethod(proto, "setTime", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		o, _, ok := thisObject(h, this)
		if !ok {
			return value.Number(math.NaN()), nil
		}
		d, ok := o.Payload().(*object.DatePayload)
		if !ok {
			return value.Number(math.NaN()), nil
		}
		n, finite := asFiniteNumber(argAt(args, 0))
		if !finite {
			d.Valid = false
			return value.Number(math.NaN()), nil
		}
		d.UnixMillis = int64(n)
		d.Valid = true
		return value.Number(n), nil
	})

	// setFullYear/setMonth/setDate and their hour/minute/second/ms
	// counterparts each adjust a prefix of fields from a variable list of
	// optional arguments, short-circuiting (ignore_next) the moment one
	// argument is missing or non-finite: a later, explicitly supplied
	// argument is still consumed off the call (matching the original
	// runtime's argument-counting) but never applied once short-circuited,
	// and the whole date becomes invalid (spec.md §4.H, §8 scenario 6).
	setters := []struct {
		name   string
		fields []func(t *dateFields, v float64)
	}{
		{"setFullYear", []func(*dateFields, float64){
			func(f *dateFields, v float64) { f.year = int(v) },
			func(f *dateFields, v float64) { f.month = int(v) },
			func(f *dateFields, v float64) { f.day = int(v) },
		}},
		{"setMonth", []func(*dateFields, float64){
			func(f *dateFields, v float64) { f.month = int(v) },
			func(f *dateFields, v float64) { f.day = int(v) },
		}},
		{"setDate", []func(*dateFields, float64){
			func(f *dateFields, v float64) { f.day = int(v) },
		}},
		{"setHours", []func(*dateFields, float64){
			func(f *dateFields, v float64) { f.hour = int(v) },
			func(f *dateFields, v float64) { f.min = int(v) },
			func(f *dateFields, v float64) { f.sec = int(v) },
			func(f *dateFields, v float64) { f.ms = int(v) },
		}},
		{"setMinutes", []func(*dateFields, float64){
			func(f *dateFields, v float64) { f.min = int(v) },
			func(f *dateFields, v float64) { f.sec = int(v) },
			func(f *dateFields, v float64) { f.ms = int(v) },
		}},
		{"setSeconds", []func(*dateFields, float64){
			func(f *dateFields, v float64) { f.sec = int(v) },
			func(f *dateFields, v float64) { f.ms = int(v) },
		}},
		{"setMilliseconds", []func(*dateFields, float64){
			func(f *dateFields, v float64) { f.ms = int(v) },
		}},
	}
	for _, s := range setters {
		setter := s
		h.defineMethod(proto, setter.name, func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
			o, _, ok := thisObject(h, this)
			if !ok {
				return value.Number(math.NaN()), nil
			}
			d, ok := o.Payload().(*object.DatePayload)
			if !ok {
				return value.Number(math.NaN()), nil
			}
			f := fieldsOf(dateTime(d))
			ignoreNext := false
			for i, apply := range setter.fields {
				if i >= len(args) {
					break
				}
				if ignoreNext {
					continue
				}
				n, finite := asFiniteNumber(args[i])
				if !finite {
					d.Valid = false
					ignoreNext = true
					continue
				}
				apply(&f, n)
			}
			if !d.Valid {
				return value.Number(math.NaN()), nil
			}
			d.UnixMillis = f.toUnixMillis()
			return value.Number(float64(d.UnixMillis)), nil
		})
	}

	h.defineMethod(proto, "toString", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		o, _, ok := thisObject(h, this)
		if !ok {
			return value.StringOf(h.interner.Intern("Invalid Date")), nil
		}
		d, ok := o.Payload().(*object.DatePayload)
		if !ok || !d.Valid {
			return value.StringOf(h.interner.Intern("Invalid Date")), nil
		}
		return value.StringOf(h.interner.Intern(dateTime(d).Format("Mon Jan 2 15:04:05 2006"))), nil
	})

	h.defineMethod(proto, "valueOf", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		o, _, ok := thisObject(h, this)
		if !ok {
			return value.Number(math.NaN()), nil
		}
		d, ok := o.Payload().(*object.DatePayload)
		if !ok || !d.Valid {
			return value.Number(math.NaN()), nil
		}
		return value.Number(float64(d.UnixMillis)), nil
	})

	return handle, proto
}

// NewDate allocates a Date instance from explicit field arguments (spec.md
// §4.H "Date" constructor), applying the < 100 -> 1900 + year rule. An
// empty args list yields the current instant (equivalent to the original
// runtime's no-arg `new Date()`; a real Locale.get_current_date_time
// backend would be threaded in here by the driver).
func (h heap) NewDate(protoHandle gc.Handle, args []value.Value) value.Value {
	var millis int64
	valid := true
	switch {
	case len(args) == 0:
		millis = time.Now().UnixMilli()
	case len(args) == 1:
		n, finite := asFiniteNumber(args[0])
		if !finite {
			valid = false
		}
		millis = int64(n)
	default:
		f := dateFields{day: 1}
		get := func(i int, dflt int) (int, bool) {
			if i >= len(args) {
				return dflt, true
			}
			n, finite := asFiniteNumber(args[i])
			return int(n), finite
		}
		var ok bool
		if f.year, ok = get(0, 1970); !ok {
			valid = false
		}
		if f.year < 100 {
			f.year += 1900
		}
		if f.month, ok = get(1, 0); !ok {
			valid = false
		}
		if f.day, ok = get(2, 1); !ok {
			valid = false
		}
		if f.hour, ok = get(3, 0); !ok {
			valid = false
		}
		if f.min, ok = get(4, 0); !ok {
			valid = false
		}
		if f.sec, ok = get(5, 0); !ok {
			valid = false
		}
		if f.ms, ok = get(6, 0); !ok {
			valid = false
		}
		millis = f.toUnixMillis()
	}
	var result value.Value
	_ = h.arena.Mutate(func(mc *gc.MutationContext) error {
		obj := object.NewVariant(object.VariantDate, &object.DatePayload{UnixMillis: millis, Valid: valid})
		obj.SetProto(h, gc.Handle{}, protoHandle)
		handle := mc.New(obj)
		obj.BindSelf(handle)
		result = value.Object(handle)
		return nil
	})
	return result
}

type dateFields struct {
	year, month, day, hour, min, sec, ms int
}

func fieldsOf(t time.Time) dateFields {
	return dateFields{
		year: t.Year(), month: int(t.Month()) - 1, day: t.Day(),
		hour: t.Hour(), min: t.Minute(), sec: t.Second(), ms: t.Nanosecond() / 1e6,
	}
}

func (f dateFields) toUnixMillis() int64 {
	t := time.Date(f.year, time.Month(f.month+1), f.day, f.hour, f.min, f.sec, f.ms*1e6, time.UTC)
	return t.UnixMilli()
}

func dateTime(d *object.DatePayload) time.Time {
	return time.UnixMilli(d.UnixMillis).UTC()
}

func asFiniteNumber(v value.Value) (float64, bool) {
	n, ok := v.AsNumber()
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
