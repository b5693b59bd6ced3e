package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstraints_MatchesType(t *testing.T) {
	tests := []struct {
		name   string
		accept string
		file   *File
		want   bool
	}{
		{"empty list accepts all", "", NewBytesFile("a.bin", "", nil), true},
		{"exact mime", "application/pdf", NewBytesFile("a.pdf", "application/pdf", nil), true},
		{"extension", ".pdf", NewBytesFile("report.PDF", "", nil), true},
		{"wildcard family", "image/*", NewBytesFile("a.png", "image/png", nil), true},
		{"wildcard other family", "image/*", NewBytesFile("a.mp4", "video/mp4", nil), false},
		{"wildcard needs a type", "image/*", NewBytesFile("a.png", "", nil), false},
		{"list with spaces", " text/csv , .json ", NewBytesFile("x.json", "", nil), true},
		{"no match", "image/*,.pdf", NewBytesFile("notes.txt", "text/plain", nil), false},
		{"name without dot", ".txt", NewBytesFile("txt", "", nil), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Constraints{Accept: tt.accept}
			assert.Equal(t, tt.want, c.MatchesType(tt.file))
		})
	}
}

func TestConstraints_CheckOrder(t *testing.T) {
	big := NewBytesFile("big.exe", "application/octet-stream", make([]byte, 2048))

	t.Run("custom validator wins", func(t *testing.T) {
		c := Constraints{
			Accept:   "image/*",
			MaxSize:  1024,
			Validate: func(*File) string { return "nope" },
		}
		assert.Equal(t, "nope", c.Check(big))
	})

	t.Run("type before size", func(t *testing.T) {
		c := Constraints{Accept: "image/*", MaxSize: 1024}
		assert.Equal(t, MsgTypeNotAccepted, c.Check(big))
	})

	t.Run("size", func(t *testing.T) {
		c := Constraints{MaxSize: 1024}
		assert.Equal(t, MsgTooLarge, c.Check(big))
	})

	t.Run("size at limit accepted", func(t *testing.T) {
		c := Constraints{MaxSize: 2048}
		assert.Empty(t, c.Check(big))
	})

	t.Run("empty custom message accepts", func(t *testing.T) {
		c := Constraints{Validate: func(*File) string { return "" }}
		assert.Empty(t, c.Check(big))
	})
}

func TestConstraints_PartitionCapacity(t *testing.T) {
	files := []*File{
		NewBytesFile("1.txt", "text/plain", []byte("a")),
		NewBytesFile("2.txt", "text/plain", []byte("b")),
		NewBytesFile("3.txt", "text/plain", []byte("c")),
		NewBytesFile("4.txt", "text/plain", []byte("d")),
	}
	c := Constraints{MaxFiles: 3}

	accepted, rejected := c.Partition(files, 1)

	require.Len(t, accepted, 2)
	assert.Same(t, files[0], accepted[0])
	assert.Same(t, files[1], accepted[1])

	require.Len(t, rejected, 2)
	assert.Same(t, files[2], rejected[0].File)
	assert.Same(t, files[3], rejected[1].File)
	assert.Equal(t, "Maximum 3 files allowed", rejected[0].Message)
	assert.Equal(t, "Maximum 3 files allowed", rejected[1].Message)
}

func TestConstraints_PartitionFullStore(t *testing.T) {
	files := []*File{NewBytesFile("a", "", nil)}
	accepted, rejected := Constraints{MaxFiles: 2}.Partition(files, 5)

	assert.Empty(t, accepted)
	require.Len(t, rejected, 1)
	assert.Equal(t, MaxFilesMessage(2), rejected[0].Message)
}

func TestConstraints_PartitionOverflowUsesCustomMessage(t *testing.T) {
	files := []*File{
		NewBytesFile("keep.txt", "", nil),
		NewBytesFile("custom.txt", "", nil),
	}
	c := Constraints{
		MaxFiles: 1,
		Validate: func(f *File) string {
			if f.Name == "custom.txt" {
				return "custom says no"
			}
			return ""
		},
	}

	accepted, rejected := c.Partition(files, 0)
	require.Len(t, accepted, 1)
	require.Len(t, rejected, 1)
	assert.Equal(t, "custom says no", rejected[0].Message)
}

func TestConstraints_PartitionMixed(t *testing.T) {
	img := NewBytesFile("a.png", "image/png", make([]byte, 10))
	huge := NewBytesFile("b.png", "image/png", make([]byte, 100))
	doc := NewBytesFile("c.doc", "application/msword", nil)

	c := Constraints{Accept: "image/*", MaxSize: 50}
	accepted, rejected := c.Partition([]*File{img, huge, doc}, 0)

	assert.Equal(t, []*File{img}, accepted)
	require.Len(t, rejected, 2)
	assert.Equal(t, Rejection{File: huge, Message: MsgTooLarge}, rejected[0])
	assert.Equal(t, Rejection{File: doc, Message: MsgTypeNotAccepted}, rejected[1])
}

func TestFile_Kind(t *testing.T) {
	tests := []struct {
		name, mime string
		want       Kind
	}{
		{"photo.jpg", "image/jpeg", KindImage},
		{"clip.mov", "video/quicktime", KindVideo},
		{"song.mp3", "audio/mpeg", KindAudio},
		{"readme.md", "", KindText},
		{"paper.pdf", "application/pdf", KindText},
		{"main.go", "", KindCode},
		{"data.json", "application/json", KindCode},
		{"backup.tar", "", KindArchive},
		{"setup.msi", "", KindExecutable},
		{"blob", "application/octet-stream", KindExecutable},
		{"mystery", "", KindGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewBytesFile(tt.name, tt.mime, nil).Kind())
		})
	}
}

func TestNewFile_DistinctIdentity(t *testing.T) {
	a := NewBytesFile("same.txt", "text/plain", []byte("x"))
	b := NewBytesFile("same.txt", "text/plain", []byte("x"))
	assert.NotEqual(t, a.ID, b.ID)
}
