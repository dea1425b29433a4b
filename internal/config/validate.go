package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateUploads(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.UploadDir) == "" {
		return errors.New("paths.upload_dir must be set")
	}
	if c.Paths.PublicBaseURL != "" {
		parsed, err := url.Parse(c.Paths.PublicBaseURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("paths.public_base_url must be an absolute URL, got %q", c.Paths.PublicBaseURL)
		}
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if topic := c.Notifications.NtfyTopic; topic != "" {
		parsed, err := url.Parse(topic)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("notifications.ntfy_topic must be a full ntfy URL (e.g. https://ntfy.sh/your-topic), got %q", topic)
		}
	}
	if c.Notifications.RequestTimeout > 120 {
		return errors.New("notifications.request_timeout must be 120 seconds or less")
	}
	return nil
}

func (c *Config) validateUploads() error {
	if c.Uploads.MaxUploadMiB > 512 {
		return errors.New("uploads.max_upload_mib must be 512 or less")
	}
	for _, value := range c.Uploads.AllowedTypes {
		if !strings.Contains(value, "/") {
			return fmt.Errorf("uploads.allowed_types entries must be MIME types, got %q", value)
		}
	}
	return nil
}
