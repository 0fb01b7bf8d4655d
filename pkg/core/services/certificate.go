package services

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-portal/pkg/clients/portalclient"
)

// CertificateClient defines the portal operation needed to fetch certificates
type CertificateClient interface {
	DownloadCertificate(ctx context.Context, volunteerID int) (*portalclient.Certificate, error)
}

// CertificateFile is a certificate ready to be saved or served
type CertificateFile struct {
	Name        string
	ContentType string
	Content     []byte
}

// FetchCertificate downloads a certificate and names it Certificate_<volunteerId>.<ext>.
// The type comes from the response header, or is sniffed from the content when
// the header is missing or generic.
func FetchCertificate(ctx context.Context, client CertificateClient, logger *zap.Logger, volunteerID int) (*CertificateFile, error) {
	cert, err := client.DownloadCertificate(ctx, volunteerID)
	if err != nil {
		return nil, fmt.Errorf("failed to download certificate: %w", err)
	}
	if len(cert.Content) == 0 {
		return nil, fmt.Errorf("certificate for volunteer record %d is empty", volunteerID)
	}

	contentType, ext := certificateType(cert.ContentType, cert.Content)
	logger.Debug("Downloaded certificate",
		zap.Int("volunteer_id", volunteerID),
		zap.String("header_type", cert.ContentType),
		zap.String("content_type", contentType),
		zap.Int("bytes", len(cert.Content)))

	return &CertificateFile{
		Name:        fmt.Sprintf("Certificate_%d%s", volunteerID, ext),
		ContentType: contentType,
		Content:     cert.Content,
	}, nil
}

// DownloadCertificate saves the certificate under dir and returns the file path
func DownloadCertificate(ctx context.Context, client CertificateClient, logger *zap.Logger, dir string, volunteerID int) (string, error) {
	file, err := FetchCertificate(ctx, client, logger, volunteerID)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create certificate directory: %w", err)
	}

	path := filepath.Join(dir, file.Name)
	if err := os.WriteFile(path, file.Content, 0644); err != nil {
		return "", fmt.Errorf("failed to write certificate: %w", err)
	}

	logger.Info("Saved certificate", zap.String("path", path))
	return path, nil
}

// certificateType resolves the media type and file extension. Certificates
// are PDF or PNG; anything else is saved as PNG.
func certificateType(header string, content []byte) (string, string) {
	if mediaType, _, err := mime.ParseMediaType(header); err == nil {
		switch strings.ToLower(mediaType) {
		case "application/pdf":
			return "application/pdf", ".pdf"
		case "image/png":
			return "image/png", ".png"
		}
	}

	detected := mimetype.Detect(content)
	switch {
	case detected.Is("application/pdf"):
		return "application/pdf", ".pdf"
	case detected.Is("image/png"):
		return "image/png", ".png"
	}
	return "image/png", ".png"
}
