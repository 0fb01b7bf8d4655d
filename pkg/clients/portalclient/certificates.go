package portalclient

import (
	"context"
	"net/url"
	"strconv"
)

// Certificate is a downloaded participation certificate
type Certificate struct {
	Content     []byte
	ContentType string
}

// DownloadCertificate fetches the certificate file for a volunteer record
func (c *Client) DownloadCertificate(ctx context.Context, volunteerID int) (*Certificate, error) {
	query := url.Values{"vId": {strconv.Itoa(volunteerID)}}
	data, contentType, err := c.getBinary(ctx, "Volunteer/DownloadCertificateByVId", query)
	if err != nil {
		return nil, err
	}
	return &Certificate{Content: data, ContentType: contentType}, nil
}
