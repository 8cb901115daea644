package json

// EncoderInterface is satisfied by *Encoder and the standard library encoder.
type EncoderInterface interface {
	Encode(any) error
}

// DecoderInterface is satisfied by *Decoder and the standard library decoder.
type DecoderInterface interface {
	Decode(any) error
}

var (
	_ EncoderInterface = (*Encoder)(nil)
	_ DecoderInterface = (*Decoder)(nil)
)
