// Package tagging embeds resolved metadata into downloaded audio files.
package tagging

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
	flac "github.com/go-flac/go-flac"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"

	"github.com/yuchenw/songvault/internal/constants"
	"github.com/yuchenw/songvault/internal/domain"
)

// TagFile writes title, artists, album, lyrics and optional cover art to the
// audio file at filePath, dispatching on extension.
func TagFile(filePath string, meta *domain.TrackMetadata, albumArtData []byte) error {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case constants.ExtMP3:
		return tagMP3(filePath, meta, albumArtData)
	case constants.ExtFLAC:
		return tagFLAC(filePath, meta, albumArtData)
	default:
		return fmt.Errorf("unsupported file format: %s", filepath.Ext(filePath))
	}
}

func tagMP3(filePath string, meta *domain.TrackMetadata, albumArtData []byte) error {
	tag, err := id3v2.Open(filePath, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open mp3 for tagging: %w", err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(meta.Name)
	tag.SetArtist(strings.Join(meta.Artists, "; "))
	tag.SetAlbum(meta.AlbumName)

	if text := lyricsText(meta.Lyrics); text != "" {
		tag.AddUnsynchronisedLyricsFrame(id3v2.UnsynchronisedLyricsFrame{
			Encoding:          id3v2.EncodingUTF8,
			Language:          "und",
			ContentDescriptor: "",
			Lyrics:            text,
		})
	}

	if len(albumArtData) > 0 {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    "image/jpeg",
			PictureType: id3v2.PTFrontCover,
			Description: "Front cover",
			Picture:     albumArtData,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to save mp3 tags: %w", err)
	}
	return nil
}

func tagFLAC(filePath string, meta *domain.TrackMetadata, albumArtData []byte) error {
	f, err := flac.ParseFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to parse flac: %w", err)
	}

	// Drop stale comment/picture blocks; we rewrite both.
	kept := f.Meta[:0]
	for _, block := range f.Meta {
		if block.Type == flac.VorbisComment || block.Type == flac.Picture {
			continue
		}
		kept = append(kept, block)
	}
	f.Meta = kept

	cmt := flacvorbis.New()
	if err := cmt.Add(flacvorbis.FIELD_TITLE, meta.Name); err != nil {
		return err
	}
	for _, artist := range meta.Artists {
		if err := cmt.Add(flacvorbis.FIELD_ARTIST, artist); err != nil {
			return err
		}
	}
	if err := cmt.Add(flacvorbis.FIELD_ALBUM, meta.AlbumName); err != nil {
		return err
	}
	if text := lyricsText(meta.Lyrics); text != "" {
		if err := cmt.Add("LYRICS", text); err != nil {
			return err
		}
	}
	cmtBlock := cmt.Marshal()
	f.Meta = append(f.Meta, &cmtBlock)

	if len(albumArtData) > 0 {
		picture, err := flacpicture.NewFromImageData(
			flacpicture.PictureTypeFrontCover, "Front cover", albumArtData, "image/jpeg")
		if err != nil {
			return fmt.Errorf("failed to build flac picture block: %w", err)
		}
		pictureBlock := picture.Marshal()
		f.Meta = append(f.Meta, &pictureBlock)
	}

	if err := f.Save(filePath); err != nil {
		return fmt.Errorf("failed to save flac tags: %w", err)
	}
	return nil
}

// lyricsText flattens the structured payload to plain lines for embedding.
func lyricsText(lyrics domain.Lyrics) string {
	if len(lyrics.Lines) == 0 {
		return ""
	}
	lines := make([]string, 0, len(lyrics.Lines))
	for _, line := range lyrics.Lines {
		lines = append(lines, line.Text)
	}
	return strings.Join(lines, "\n")
}
