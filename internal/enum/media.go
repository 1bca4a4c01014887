package enum

type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
	MediaKindOther MediaKind = "other"
)

func (t MediaKind) String() string {
	return string(t)
}

type Codec string

const (
	CodecMP4  Codec = "mp4"
	CodecWebM Codec = "webm"
)

func (t Codec) String() string {
	return string(t)
}

type SkipReason string

const (
	SkipMalformed    SkipReason = "malformed"
	SkipUnauthorized SkipReason = "unauthorized"
)

func (t SkipReason) String() string {
	return string(t)
}
