package main

import (
	"net/url"
	"strconv"
)

// params reads typed query parameters and keeps the first failure, so a binder
// can read every field and check Err once.
type params struct {
	values url.Values
	err    error
}

func newParams(values url.Values) *params {
	return &params{values: values}
}

func (p *params) Err() error { return p.err }

func (p *params) raw(name string) (string, bool) {
	if p.err != nil {
		return "", false
	}
	vals, ok := p.values[name]
	if !ok || len(vals) == 0 {
		p.err = validationErrorf("Required request parameter '%s' is not present", name)
		return "", false
	}
	return vals[0], true
}

func (p *params) fail(name, value string, err error) {
	p.err = validationErrorf("invalid value %q for parameter '%s': %v", value, name, err)
}

func (p *params) String(name string) string {
	s, _ := p.raw(name)
	return s
}

func (p *params) Bool(name string) bool {
	s, ok := p.raw(name)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		p.fail(name, s, strconv.ErrSyntax)
	}
	return b
}

func (p *params) Int(name string) int {
	s, ok := p.raw(name)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		p.fail(name, s, strconv.ErrSyntax)
	}
	return n
}

func (p *params) Int64(name string) int64 {
	s, ok := p.raw(name)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		p.fail(name, s, strconv.ErrSyntax)
	}
	return n
}

func (p *params) Date(name string) Date {
	s, ok := p.raw(name)
	if !ok {
		return Date{}
	}
	d, err := ParseDate(s)
	if err != nil {
		p.fail(name, s, err)
	}
	return d
}

func (p *params) DateTime(name string) DateTime {
	s, ok := p.raw(name)
	if !ok {
		return DateTime{}
	}
	dt, err := ParseDateTime(s)
	if err != nil {
		p.fail(name, s, err)
	}
	return dt
}
