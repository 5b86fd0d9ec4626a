package signin_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-signin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTrip(t *testing.T) {
	codec := signin.NewCodec([]byte("test-signing-key"), time.Hour, "test-issuer", []string{"test-audience"}, nil)
	subject := uuid.NewString()

	token, err := codec.Encode(subject)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	decoded, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, subject, decoded)
}

func TestCodecEncodeEmptySubject(t *testing.T) {
	codec := signin.NewCodec([]byte("test-signing-key"), time.Hour, "", nil, nil)

	_, err := codec.Encode("")
	assert.Error(t, err)
}

func TestCodecDecodeExpired(t *testing.T) {
	codec := signin.NewCodec([]byte("test-signing-key"), -time.Hour, "test-issuer", nil, nil)

	token, err := codec.Encode(uuid.NewString())
	require.NoError(t, err)

	_, err = codec.Decode(token)
	assert.ErrorIs(t, err, signin.ErrTokenExpired)
}

func TestCodecDecodeMalformed(t *testing.T) {
	codec := signin.NewCodec([]byte("test-signing-key"), time.Hour, "", nil, nil)

	_, err := codec.Decode("not.a.token")
	assert.Error(t, err)
}

func TestCodecDecodeWrongKey(t *testing.T) {
	codec := signin.NewCodec([]byte("test-signing-key"), time.Hour, "", nil, nil)
	other := signin.NewCodec([]byte("other-signing-key"), time.Hour, "", nil, nil)

	token, err := codec.Encode(uuid.NewString())
	require.NoError(t, err)

	_, err = other.Decode(token)
	assert.Error(t, err)
}

func TestCodecDecodeWrongIssuer(t *testing.T) {
	minted := signin.NewCodec([]byte("test-signing-key"), time.Hour, "issuer-a", nil, nil)
	verifier := signin.NewCodec([]byte("test-signing-key"), time.Hour, "issuer-b", nil, nil)

	token, err := minted.Encode(uuid.NewString())
	require.NoError(t, err)

	_, err = verifier.Decode(token)
	assert.Error(t, err)
}

func TestCodecDecodeRejectsNonHMAC(t *testing.T) {
	codec := signin.NewCodec([]byte("test-signing-key"), time.Hour, "", nil, nil)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &jwt.RegisteredClaims{
		Subject: uuid.NewString(),
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = codec.Decode(token)
	assert.Error(t, err)
}
