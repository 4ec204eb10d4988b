package lib

import "github.com/ardnew/plet/lang"

var (
	ErrNoSiteMap   = lang.NewError("SITE_MAP undefined or not an array")
	ErrNoDistRoot  = lang.NewError("DIST_ROOT undefined or not a string")
	ErrInvalidPage = lang.NewError("invalid page object in SITE_MAP")
	ErrTemplate    = lang.NewError("template evaluation failed")
	ErrWritePage   = lang.NewError("unable to write page")
)
