package lib

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/ardnew/plet/lang/value"
)

// Images defines functions for inspecting and resizing images.
func Images(env *value.Env) {
	env.DefineNative("images", images)
	env.DefineNative("image_info", imageInfo)
}

// ImageInfo describes the dimensions and format of an image file.
type ImageInfo struct {
	Type   string
	Width  int
	Height int
}

// ReadImageInfo decodes the header of the image at p. PNG, JPEG, GIF and
// WebP are recognized.
func ReadImageInfo(p string) (ImageInfo, error) {
	f, err := os.Open(p)
	if err != nil {
		return ImageInfo{}, err
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return ImageInfo{}, err
	}

	return ImageInfo{Type: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// imageInfo returns {width, height, type} for an image relative to DIR, or
// nil when it cannot be read.
func imageInfo(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgs(1, args) {
		return value.Nil{}
	}

	name, ok := arg[value.String](0, value.KindString, args, env)
	if !ok {
		return value.Nil{}
	}

	p, ok := srcPath(string(name), env)
	if !ok {
		return value.Nil{}
	}

	info, err := ReadImageInfo(p)
	if err != nil {
		return value.Nil{}
	}

	obj := value.NewObject(env.Arena, 3)
	put(env, obj, "width", value.Int(info.Width))
	put(env, obj, "height", value.Int(info.Height))
	put(env, obj, "type", value.String(info.Type))

	return obj
}

type imageOptions struct {
	env       *value.Env
	srcRoot   string
	distRoot  string
	maxWidth  int
	maxHeight int
	quality   int
	linkFull  bool
	lossless  bool
}

// images rewrites the img elements whose src starts with "asset:". Each
// image is copied to DIST_ROOT/assets, scaled down to fit within the
// maximum size or the size given by its width and height attributes, and
// its src becomes a "link:" to the copy. With linkFull set, a scaled image
// is wrapped in a link to the original.
func images(args []value.Value, env *value.Env) value.Value {
	if !env.CheckArgsBetween(1, 5, args) {
		return value.Nil{}
	}

	src, render, ok := nodeArg(args, env)
	if !ok {
		return value.Nil{}
	}

	opts := imageOptions{env: env, linkFull: true, lossless: true}

	for i, p := range []*int{&opts.maxWidth, &opts.maxHeight, &opts.quality} {
		def := [...]int{640, 480, 100}[i]

		n, ok := optArg(i+1, value.KindInt, value.Int(def), args, env)
		if !ok {
			return value.Nil{}
		}

		*p = int(n)
	}

	if len(args) > 4 {
		opts.linkFull = value.Truthy(args[4])
	}

	if v, found := env.LookupName("IMAGE_PRESERVE_LOSSLESS"); found {
		opts.lossless = value.Truthy(v)
	}

	if opts.srcRoot, ok = rootPath("SRC_ROOT", env); !ok {
		return args[0]
	}

	if opts.distRoot, ok = rootPath("DIST_ROOT", env); !ok {
		return args[0]
	}

	transformImages(src, &opts)

	return render(src)
}

func transformImages(node value.Value, opts *imageOptions) {
	obj, ok := node.(*value.Object)
	if !ok {
		return
	}

	children, ok := field[*value.Array](obj, "children")
	if !ok {
		return
	}

	for i, child := range children.Items() {
		if replaced := transformImage(child, opts); replaced != nil {
			children.Set(i, replaced)

			continue
		}

		transformImages(child, opts)
	}
}

func sizeAttr(attrs *value.Object, name string) int {
	s, _ := field[value.String](attrs, name)
	n, _ := strconv.Atoi(strings.TrimSpace(string(s)))

	return n
}

// transformImage rewrites one img element and returns the link element
// that should replace it, if any.
func transformImage(node value.Value, opts *imageOptions) *value.Object {
	obj, ok := node.(*value.Object)
	if !ok {
		return nil
	}

	if t, _ := obj.Field("tag"); !isTag(t, "img") {
		return nil
	}

	attrs, ok := field[*value.Object](obj, "attributes")
	if !ok {
		return nil
	}

	s, _ := field[value.String](attrs, "src")

	asset, ok := strings.CutPrefix(string(s), assetPrefix)
	if !ok {
		return nil
	}

	env := opts.env
	width, height := sizeAttr(attrs, "width"), sizeAttr(attrs, "height")

	r := opts.handle(path.Clean("/"+asset), width, height)

	setField(env, attrs, "src", value.String(linkPrefix+r.web))

	if r.width != 0 {
		setField(env, attrs, "width", value.String(strconv.Itoa(r.width)))
	}

	if r.height != 0 {
		setField(env, attrs, "height", value.String(strconv.Itoa(r.height)))
	}

	if r.original == "" {
		return nil
	}

	a := value.NewObject(env.Arena, 5)
	put(env, a, "type", sym(env, "element"))
	put(env, a, "tag", sym(env, "a"))

	linkAttrs := value.NewObject(env.Arena, 1)
	put(env, linkAttrs, "href", value.String(linkPrefix+r.original))
	put(env, a, "attributes", linkAttrs)
	put(env, a, "children", value.ArrayOf(env.Arena, obj))
	put(env, a, "self_closing", value.Nil{})

	return a
}

func isTag(v value.Value, tag string) bool {
	name, ok := nameOf(v)

	return ok && strings.EqualFold(name, tag)
}

type imageResult struct {
	web      string
	original string
	width    int
	height   int
}

func (o *imageOptions) paths(web string) (src, dest string) {
	return filepath.Join(o.srcRoot, filepath.FromSlash(strings.TrimPrefix(web, "assets"))),
		filepath.Join(o.distRoot, filepath.FromSlash(web))
}

func (o *imageOptions) copy(src, dest string) {
	if !assetChanged(src, dest) {
		return
	}

	if err := CopyChanged(src, dest); err != nil {
		o.env.Errorf("unable to copy image: %s", err)

		return
	}

	NotifyObservers(dest, o.env)
}

func supportedImage(ext string) bool {
	switch ext {
	case "png", "jpg", "jpeg", "gif", "webp":
		return true
	}

	return false
}

// handle copies or scales the asset at the rooted path asset and returns
// its new location and size.
func (o *imageOptions) handle(asset string, width, height int) imageResult {
	r := imageResult{web: path.Join("assets", asset), width: width, height: height}
	src, dest := o.paths(r.web)

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(asset), "."))
	if !supportedImage(ext) {
		o.copy(src, dest)

		return r
	}

	info, err := ReadImageInfo(src)
	if err != nil {
		o.env.Errorf("unable to read image %s: %s", asset, err)

		return r
	}

	if info.Width <= o.maxWidth && info.Height <= o.maxHeight && width == 0 && height == 0 {
		r.width, r.height = info.Width, info.Height
		o.copy(src, dest)

		return r
	}

	reqW, reqH := info.Width, info.Height

	switch {
	case width != 0 && height != 0:
		reqW, reqH = width, height
	case width != 0:
		reqW, reqH = width, width*info.Height/info.Width
	case height != 0:
		reqW, reqH = height*info.Width/info.Height, height
	}

	ratio := float64(reqW) / float64(reqH)

	if ratio < float64(o.maxWidth)/float64(o.maxHeight) {
		r.height = min(reqH, o.maxHeight)
		r.width = int(float64(r.height) * ratio)
	} else {
		r.width = min(reqW, o.maxWidth)
		r.height = int(float64(r.width) / ratio)
	}

	if r.width*r.height*2 >= info.Width*info.Height {
		o.copy(src, dest)

		if o.linkFull {
			r.original = r.web
		}

		return r
	}

	if o.linkFull {
		o.copy(src, dest)
		r.original = r.web
	}

	outExt := "jpg"
	if o.lossless && (ext == "png" || ext == "gif") {
		outExt = ext
	}

	base := strings.TrimSuffix(path.Base(asset), path.Ext(asset))
	r.web = path.Join(path.Dir(r.web),
		fmt.Sprintf("%s.%dx%dq%d.%s", base, r.width, r.height, o.quality, outExt))

	scaled := filepath.Join(o.distRoot, filepath.FromSlash(r.web))
	if assetChanged(src, scaled) {
		if err := scaleImage(src, scaled, r.width, r.height, o.quality, outExt); err != nil {
			o.env.Errorf("unable to scale image %s: %s", asset, err)
		} else {
			NotifyObservers(scaled, o.env)
		}
	}

	return r
}

// scaleImage writes src scaled to width by height into dest, encoded by
// the format ext names. dest receives the modification time of src.
func scaleImage(src, dest string, width, height, quality int, ext string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	img, _, err := image.Decode(in)
	if err != nil {
		return err
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	switch ext {
	case "png":
		err = png.Encode(out, dst)
	case "gif":
		err = gif.Encode(out, dst, nil)
	default:
		err = jpeg.Encode(out, dst, &jpeg.Options{Quality: min(max(quality, 1), 100)})
	}

	if cerr := out.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		return err
	}

	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	return os.Chtimes(dest, info.ModTime(), info.ModTime())
}
