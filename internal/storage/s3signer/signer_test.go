package s3signer

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"
)

type fakePresigner struct {
	input *s3.GetObjectInput
	opts  s3.PresignOptions
	err   error
}

func (f *fakePresigner) PresignGetObject(_ context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	f.input = params
	for _, fn := range optFns {
		fn(&f.opts)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &v4.PresignedHTTPRequest{URL: "https://signed.example.com/" + aws.ToString(params.Key)}, nil
}

func TestSignedURLUsesBucketKeyAndTTL(t *testing.T) {
	fake := &fakePresigner{}
	signer, err := New(fake, "wiki-uploads")
	require.NoError(t, err)

	got, err := signer.SignedURL(context.Background(), "/uploads/a1/report.pdf", 90*time.Second)
	require.NoError(t, err)
	require.Equal(t, "https://signed.example.com/uploads/a1/report.pdf", got)
	require.Equal(t, "wiki-uploads", aws.ToString(fake.input.Bucket))
	require.Equal(t, "uploads/a1/report.pdf", aws.ToString(fake.input.Key))
	require.Equal(t, 90*time.Second, fake.opts.Expires)
}

func TestSignedURLErrors(t *testing.T) {
	_, err := New(&fakePresigner{}, " ")
	require.ErrorIs(t, err, ErrMissingBucket)

	boom := errors.New("no credentials")
	signer, err := New(&fakePresigner{err: boom}, "bucket")
	require.NoError(t, err)

	_, err = signer.SignedURL(context.Background(), "", time.Minute)
	require.ErrorIs(t, err, ErrMissingKey)

	_, err = signer.SignedURL(context.Background(), "k", time.Minute)
	require.ErrorIs(t, err, boom)
}

func TestSignedURLWithS3Client(t *testing.T) {
	awsCfg := aws.Config{
		Region: "us-east-1",
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: "AKIDEXAMPLE", SecretAccessKey: "secret"}, nil
		}),
	}
	client := NewClient(awsCfg, Config{Endpoint: "https://s3.example.com", UsePathStyle: true})
	signer, err := NewFromClient(client, "wiki-uploads")
	require.NoError(t, err)

	raw, err := signer.SignedURL(context.Background(), "uploads/a1.png", time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "s3.example.com", u.Host)
	require.Equal(t, "/wiki-uploads/uploads/a1.png", u.Path)
	require.Equal(t, "60", u.Query().Get("X-Amz-Expires"))
	require.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}
