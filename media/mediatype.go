// Package media classifies package artifacts into EPUB core media types.
package media

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Family is the top level part of the media type.
type Family int

const (
	FamilyImage Family = iota + 1
	FamilyApplication
	FamilyAudio
	FamilyText
)

func (f Family) String() string {
	switch f {
	case FamilyImage:
		return "image"
	case FamilyApplication:
		return "application"
	case FamilyAudio:
		return "audio"
	case FamilyText:
		return "text"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// MediaType is one of EPUB core media types,
// https://www.w3.org/TR/epub-33/#sec-core-media-types.
type MediaType int

const (
	ImageGIF MediaType = iota + 1
	ImageJPEG
	ImagePNG
	ImageSVG
	ApplicationXHTML
	ApplicationOpenType
	ApplicationWOFF
	ApplicationMediaOverlays
	ApplicationPLS
	AudioMPEG
	AudioMP4
	TextCSS
	TextJS
)

type definition struct {
	family  Family
	subtype string
}

var definitions = map[MediaType]definition{
	ImageGIF:                 {FamilyImage, "gif"},
	ImageJPEG:                {FamilyImage, "jpeg"},
	ImagePNG:                 {FamilyImage, "png"},
	ImageSVG:                 {FamilyImage, "svg+xml"},
	ApplicationXHTML:         {FamilyApplication, "xhtml+xml"},
	ApplicationOpenType:      {FamilyApplication, "vnd.ms-opentype"},
	ApplicationWOFF:          {FamilyApplication, "font-woff"},
	ApplicationMediaOverlays: {FamilyApplication, "smil+xml"},
	ApplicationPLS:           {FamilyApplication, "pls+xml"},
	AudioMPEG:                {FamilyAudio, "mpeg"},
	AudioMP4:                 {FamilyAudio, "mp4"},
	TextCSS:                  {FamilyText, "css"},
	TextJS:                   {FamilyText, "javascript"},
}

// NOTE: matching is case sensitive, "PNG" is not supported.
var extensions = map[string]MediaType{
	"gif":   ImageGIF,
	"jpeg":  ImageJPEG,
	"jpg":   ImageJPEG,
	"jpe":   ImageJPEG,
	"png":   ImagePNG,
	"svg":   ImageSVG,
	"svgz":  ImageSVG,
	"xhtml": ApplicationXHTML,
	"xht":   ApplicationXHTML,
	"otf":   ApplicationOpenType,
	"otc":   ApplicationOpenType,
	"ttf":   ApplicationOpenType,
	"ttc":   ApplicationOpenType,
	"woff":  ApplicationWOFF,
	"woff2": ApplicationWOFF,
	"smil":  ApplicationMediaOverlays,
	"pls":   ApplicationPLS,
	"mp3":   AudioMPEG,
	"aac":   AudioMP4,
	"mp4":   AudioMP4,
	"css":   TextCSS,
	"js":    TextJS,
}

// UnsupportedError is returned for extensions outside of core media types.
type UnsupportedError struct {
	Ext string
}

func (e *UnsupportedError) Error() string {
	if len(e.Ext) == 0 {
		return "file without extension is not a core media type"
	}
	return fmt.Sprintf(".%s is not a core media type", e.Ext)
}

// FromExt classifies extension (without leading dot).
func FromExt(ext string) (MediaType, error) {
	if mt, ok := extensions[ext]; ok {
		return mt, nil
	}
	return 0, &UnsupportedError{Ext: ext}
}

// FromPath classifies file by its extension.
func FromPath(path string) (MediaType, error) {
	return FromExt(strings.TrimPrefix(filepath.Ext(path), "."))
}

func (m MediaType) Family() Family {
	return definitions[m].family
}

// Subtype returns second part of the media type string.
func (m MediaType) Subtype() string {
	return definitions[m].subtype
}

// String returns canonical form used in package manifest.
func (m MediaType) String() string {
	d, ok := definitions[m]
	if !ok {
		return fmt.Sprintf("MediaType(%d)", int(m))
	}
	return d.family.String() + "/" + d.subtype
}
