package s3blob

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormaliseEndpoint(t *testing.T) {
	assert.Equal(t, "https://s3.example.com", normaliseEndpoint("s3.example.com", true))
	assert.Equal(t, "http://minio:9000", normaliseEndpoint("minio:9000", false))
	assert.Equal(t, "http://already", normaliseEndpoint("http://already", true))
}

type statusErr int

func (e statusErr) Error() string       { return fmt.Sprintf("status %d", int(e)) }
func (e statusErr) HTTPStatusCode() int { return int(e) }

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(&types.NoSuchKey{}))
	assert.True(t, isNotFound(fmt.Errorf("wrapped: %w", &types.NotFound{})))
	assert.True(t, isNotFound(statusErr(404)))
	assert.False(t, isNotFound(statusErr(500)))
	assert.False(t, isNotFound(errors.New("boom")))
}

func TestNewValidates(t *testing.T) {
	_, err := New(context.Background(), ClientConfig{Region: "us-east-1"})
	require.Error(t, err)
	_, err = New(context.Background(), ClientConfig{Bucket: "b"})
	require.Error(t, err)
}

func TestNewBuildsClient(t *testing.T) {
	c, err := New(context.Background(), ClientConfig{
		Endpoint:       "localhost:9000",
		Region:         "us-east-1",
		Bucket:         "solarb",
		AccessKey:      "key",
		SecretKey:      "secret",
		ForcePathStyle: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "solarb", c.Bucket())
	assert.NotNil(t, NewReader(c))
	assert.NotNil(t, NewWriter(c))
}

func TestPingHeadsBucket(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		if r.URL.Path != "/solarb" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	newClient := func(bucket string) *Client {
		c, err := New(context.Background(), ClientConfig{
			Endpoint:       srv.URL,
			Region:         "us-east-1",
			Bucket:         bucket,
			AccessKey:      "key",
			SecretKey:      "secret",
			ForcePathStyle: true,
		})
		require.NoError(t, err)
		return c
	}

	require.NoError(t, newClient("solarb").Ping(context.Background()))
	assert.Equal(t, http.MethodHead, gotMethod)
	assert.Equal(t, "/solarb", gotPath)

	assert.Error(t, newClient("missing").Ping(context.Background()))
}
