// Package kugou talks to the vendor catalog: request signing, search,
// metadata resolution and stream URL resolution.
package kugou

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/yuchenw/songvault/internal/config"
	"github.com/yuchenw/songvault/internal/constants"
)

// Signer produces the deterministic request signature the vendor validates.
// The vendor checks signatures positionally, so each call site has its own
// parameter builder and the order in those builders is part of the wire
// contract.
type Signer struct {
	creds config.VendorCredentials
}

func NewSigner(creds config.VendorCredentials) *Signer {
	return &Signer{creds: creds}
}

// Sign concatenates the shared secret, every "key=value" parameter string in
// the exact order supplied, then the secret again, and returns the hex MD5
// of the result.
func (s *Signer) Sign(params []string) string {
	var b strings.Builder
	b.WriteString(s.creds.SecretKey)
	for _, p := range params {
		b.WriteString(p)
	}
	b.WriteString(s.creds.SecretKey)
	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// SongInfoParams builds the ordered parameter pairs for a song-info (and
// play-info) lookup at the given Unix millisecond timestamp.
func (s *Signer) SongInfoParams(clienttime int64, audioID string) [][2]string {
	return [][2]string{
		{"appid", s.creds.AppID},
		{"clienttime", strconv.FormatInt(clienttime, 10)},
		{"clientver", s.creds.ClientVer},
		{"dfid", s.creds.DFID},
		{"encode_album_audio_id", audioID},
		{"mid", s.creds.MID},
		{"platid", s.creds.PlatID},
		{"srcappid", s.creds.SrcAppID},
		{"token", s.creds.Token},
		{"userid", s.creds.UserID},
		{"uuid", s.creds.UUID},
	}
}

// SearchParams builds the ordered parameter pairs for a catalog search at
// the given Unix millisecond timestamp.
func (s *Signer) SearchParams(clienttime int64, keyword string) [][2]string {
	return [][2]string{
		{"appid", s.creds.AppID},
		{"bitrate", "0"},
		{"callback", constants.CallbackToken},
		{"clienttime", strconv.FormatInt(clienttime, 10)},
		{"clientver", s.creds.SearchVer},
		{"dfid", s.creds.DFID},
		{"filter", "10"},
		{"inputtype", "0"},
		{"iscorrection", "1"},
		{"isfuzzy", "0"},
		{"keyword", keyword},
		{"mid", s.creds.MID},
		{"page", constants.SearchPage},
		{"pagesize", constants.SearchPageSize},
		{"platform", "WebFilter"},
		{"privilege_filter", "0"},
		{"srcappid", s.creds.SrcAppID},
		{"token", s.creds.Token},
		{"userid", s.creds.UserID},
		{"uuid", s.creds.UUID},
	}
}

// SignPairs flattens ordered pairs into "key=value" strings and signs them.
func (s *Signer) SignPairs(pairs [][2]string) string {
	params := make([]string, 0, len(pairs))
	for _, p := range pairs {
		params = append(params, p[0]+"="+p[1])
	}
	return s.Sign(params)
}
