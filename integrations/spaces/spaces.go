package spaces

import (
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// Client uploads to a DigitalOcean Spaces bucket through the S3 API.
type Client struct {
	s3     *s3.S3
	bucket string
}

func New(key, secret, endpoint, region, bucket string) (*Client, error) {
	s3Config := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(key, secret, ""),
		Endpoint:         aws.String(endpoint),
		S3ForcePathStyle: aws.Bool(false),
		Region:           aws.String(region),
	}

	newSession, err := session.NewSession(s3Config)
	if err != nil {
		return nil, err
	}
	return &Client{s3: s3.New(newSession), bucket: bucket}, nil
}

func (c *Client) Upload(localPath, remotePath string) error {
	open, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer open.Close()

	object := s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(remotePath),
		Body:   open,
		ACL:    aws.String("private"),
	}
	_, err = c.s3.PutObject(&object)
	return err
}
