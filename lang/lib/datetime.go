package lib

import (
	"time"

	"gitlab.com/variadico/lctime"

	"github.com/ardnew/plet/lang/value"
)

// Datetime defines functions for creating and formatting times.
func Datetime(env *value.Env) {
	env.DefineNative("now", now)
	env.DefineNative("time", toTime)
	env.DefineNative("date", date)
	env.DefineNative("iso8601", timeFormatter(func(t time.Time) string {
		return lctime.Strftime("%Y-%m-%dT%H:%M:%S%z", t)
	}))
	env.DefineNative("rfc2822", timeFormatter(RFC2822))
}

// RFC2822 formats t in local time the way mail and HTTP headers expect.
func RFC2822(t time.Time) string {
	return t.Local().Format("Mon, 2 Jan 2006 15:04:05 -0700")
}

func now(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgs(0, args) {
		return value.Nil{}
	}

	return value.Time{Time: time.Now().Truncate(time.Second)}
}

// timeArg accepts a time, a Unix timestamp or an ISO 8601 string.
func timeArg(i int, args []value.Value, env *value.Env) (time.Time, bool) {
	switch v := args[i].(type) {
	case value.Time:
		return v.Time, true
	case value.Int:
		return time.Unix(int64(v), 0), true
	case value.String:
		return ParseISO8601(string(v)), true
	}

	argExpected(i, "time|int|string", args, env)

	return time.Time{}, false
}

func toTime(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgs(1, args) {
		return value.Nil{}
	}

	t, ok := timeArg(0, args, env)
	if !ok {
		return value.Nil{}
	}

	return value.Time{Time: t}
}

// date formats a time with a strftime layout in local time.
func date(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgs(2, args) {
		return value.Nil{}
	}

	t, ok := timeArg(0, args, env)
	if !ok {
		return value.Nil{}
	}

	layout, ok := arg[value.String](1, value.KindString, args, env)
	if !ok {
		return value.Nil{}
	}

	out := lctime.Strftime(string(layout), t.Local())
	if out == "" && layout != "" {
		env.Errorf("date formatting error: empty result")

		return value.Nil{}
	}

	return value.String(out)
}

func timeFormatter(format func(time.Time) string) value.NativeFunc {
	return func(args []value.Value, env *value.Env) value.Value {
		if !env.CheckArgs(1, args) {
			return value.Nil{}
		}

		t, ok := timeArg(0, args, env)
		if !ok {
			return value.Nil{}
		}

		return value.String(format(t.Local()))
	}
}

type isoScanner struct {
	s string
	i int
}

func (p *isoScanner) skip(chars string) bool {
	if p.i < len(p.s) {
		for j := range len(chars) {
			if p.s[p.i] == chars[j] {
				p.i++

				return true
			}
		}
	}

	return false
}

func (p *isoScanner) int(maxDigits int) int {
	n := 0

	for ; maxDigits > 0 && p.i < len(p.s) && p.s[p.i] >= '0' && p.s[p.i] <= '9'; maxDigits-- {
		n = n*10 + int(p.s[p.i]-'0')
		p.i++
	}

	return n
}

// ParseISO8601 leniently parses YYYY-MM-DD with an optional time of day
// separated by T or a space. A time may carry fractional seconds and a zone
// of Z or ±hh[:]mm; without a zone it is local. Missing fields are zero.
func ParseISO8601(s string) time.Time {
	p := &isoScanner{s: s}

	year := p.int(4)
	p.skip("-")
	month := p.int(2)
	p.skip("-")
	day := p.int(2)

	if !p.skip("T ") {
		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	}

	hour := p.int(2)
	p.skip(":")
	minute := p.int(2)
	p.skip(":")
	sec := p.int(2)

	nsec := 0

	if p.skip(".") {
		start := p.i
		nsec = p.int(9)

		for range 9 - (p.i - start) {
			nsec *= 10
		}

		p.int(len(p.s))
	}

	loc := time.Local

	switch {
	case p.skip("Z"):
		loc = time.UTC
	case p.i < len(p.s) && (p.s[p.i] == '+' || p.s[p.i] == '-'):
		sign := 1
		if p.s[p.i] == '-' {
			sign = -1
		}

		p.i++
		offset := p.int(2) * 3600
		p.skip(":")
		offset += p.int(2) * 60
		loc = time.FixedZone("", sign*offset)
	}

	return time.Date(year, time.Month(month), day, hour, minute, sec, nsec, loc)
}
