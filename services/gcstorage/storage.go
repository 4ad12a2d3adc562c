package gcstorage

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"huim/filestore"
)

var _ filestore.FileManager = (*GCSDriver)(nil)

type GCSDriver struct {
	client     *storage.Client
	BucketName string
}

func New(bucketName string) (*GCSDriver, error) {
	ctx := context.Background()
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	d := &GCSDriver{
		BucketName: bucketName,
		client:     client,
	}
	return d, nil
}

func (gcsd *GCSDriver) Create(dir, fileName string, reader io.Reader) error {
	ctx := context.Background()
	obj := gcsd.client.Bucket(gcsd.BucketName).Object(dir + fileName)
	w := obj.NewWriter(ctx)
	if _, err := io.Copy(w, reader); err != nil {
		return err
	}
	err := w.Close()
	return err
}

func (gcsd *GCSDriver) Get(dir, fileName string) (io.ReadCloser, error) {
	ctx := context.Background()
	obj := gcsd.client.Bucket(gcsd.BucketName).Object(dir + fileName)
	rc, err := obj.NewReader(ctx)
	return rc, err
}

func (gcsd *GCSDriver) GetRunDir(runID string) string {
	return fmt.Sprintf("runs/%s/", runID)
}

func (gcsd *GCSDriver) GetResultsFilePathAndName(runID string) (string, string) {
	return gcsd.GetRunDir(runID), "results.txt"
}

func (gcsd *GCSDriver) GetStatsFilePathAndName(runID string) (string, string) {
	return gcsd.GetRunDir(runID), "stats.json"
}
