package module

import "github.com/ardnew/plet/lang"

var (
	ErrRead          = lang.NewError("unable to read module")
	ErrDecode        = lang.NewError("unable to decode data module")
	ErrUnknownModule = lang.NewError("unknown system module")
	ErrNoDir         = lang.NewError("missing or invalid DIR")
	ErrImportCycle   = lang.NewError("import cycle")
)
