package services

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"image/color"
	"os"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	types "github.com/yungbote/stampcard-backend/internal/domain"
	"github.com/yungbote/stampcard-backend/internal/platform/gcp"
	"github.com/yungbote/stampcard-backend/internal/platform/logger"
)

const avatarSize = 256

// Soft pastel backgrounds that read well behind white initials.
var avatarPalette = []color.NRGBA{
	{R: 0xF2, G: 0x8B, B: 0x82, A: 0xFF},
	{R: 0xF7, G: 0xB2, B: 0x67, A: 0xFF},
	{R: 0x81, G: 0xC7, B: 0x84, A: 0xFF},
	{R: 0x4F, G: 0xC3, B: 0xF7, A: 0xFF},
	{R: 0x95, G: 0x75, B: 0xCD, A: 0xFF},
	{R: 0xF0, G: 0x62, B: 0x92, A: 0xFF},
	{R: 0x4D, G: 0xB6, B: 0xAC, A: 0xFF},
}

type AvatarService interface {
	GenerateInitials(seed, name string) (bytes.Buffer, error)
	// UploadMemberAvatar returns "" when object storage is not configured.
	UploadMemberAvatar(ctx context.Context, p *types.Profile) (string, error)
}

type avatarService struct {
	log           *logger.Logger
	bucketService gcp.BucketService
	ttf           *truetype.Font
	fontFace      font.Face
}

// NewAvatarService loads AVATAR_FONT when set and falls back to the bundled Go font.
// Use a CJK-capable font in production so Japanese names render.
func NewAvatarService(log *logger.Logger, bucketService gcp.BucketService, fontPath string) (AvatarService, error) {
	serviceLog := log.With("service", "AvatarService")

	fontBytes := goregular.TTF
	if p := strings.TrimSpace(fontPath); p != "" {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read font file: %w", err)
		}
		fontBytes = b
		serviceLog.Info("Loading avatar font", "font", p)
	}
	parsed, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	face := truetype.NewFace(parsed, &truetype.Options{
		Size:    avatarSize * 0.45,
		DPI:     72,
		Hinting: font.HintingNone,
	})

	return &avatarService{
		log:           serviceLog,
		bucketService: bucketService,
		ttf:           parsed,
		fontFace:      face,
	}, nil
}

func (as *avatarService) GenerateInitials(seed, name string) (bytes.Buffer, error) {
	var buf bytes.Buffer
	dc := gg.NewContext(avatarSize, avatarSize)

	half := float64(avatarSize) / 2
	dc.DrawCircle(half, half, half)
	dc.Clip()

	dc.SetColor(pickAvatarColor(seed))
	dc.DrawRectangle(0, 0, avatarSize, avatarSize)
	dc.Fill()

	initial := as.initialFor(name)
	dc.SetFontFace(as.fontFace)
	dc.SetColor(color.White)
	dc.DrawStringAnchored(initial, half, half, 0.5, 0.35)

	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf, nil
}

func (as *avatarService) UploadMemberAvatar(ctx context.Context, p *types.Profile) (string, error) {
	if as.bucketService == nil || p == nil {
		return "", nil
	}
	buf, err := as.GenerateInitials(p.ID, p.DisplayName)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("members/%s/%d.png", p.ID, time.Now().UnixNano())
	if err := as.bucketService.UploadFile(ctx, gcp.BucketCategoryAvatar, key, bytes.NewReader(buf.Bytes())); err != nil {
		return "", fmt.Errorf("failed to upload member avatar: %w", err)
	}
	return as.bucketService.GetPublicURL(gcp.BucketCategoryAvatar, key), nil
}

// initialFor picks the first letter of name, or "?" when the font has no glyph for it.
func (as *avatarService) initialFor(name string) string {
	name = strings.TrimSpace(name)
	r, _ := utf8.DecodeRuneInString(name)
	if name == "" || r == utf8.RuneError {
		return "?"
	}
	r = unicode.ToUpper(r)
	if as.ttf != nil && as.ttf.Index(r) == 0 {
		return "?"
	}
	return string(r)
}

func pickAvatarColor(seed string) color.NRGBA {
	h := fnv.New32a()
	_, _ = h.Write([]byte(seed))
	return avatarPalette[int(h.Sum32()%uint32(len(avatarPalette)))]
}
