package blob

import (
	"bytes"
	"context"
	"io"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/pixelforge/pkg/errors"
)

// MongoStore keeps blobs in a GridFS bucket. Overwriting a name uploads a
// new file and removes the older revisions.
type MongoStore struct {
	client  *mongo.Client
	bucket  *gridfs.Bucket
	baseURL string
}

// MongoOptions configures [NewMongoStore].
type MongoOptions struct {
	URI      string
	Database string
	Bucket   string // GridFS bucket name, default "blobs"
	BaseURL  string
}

// NewMongoStore connects to MongoDB and opens the GridFS bucket.
func NewMongoStore(ctx context.Context, opts MongoOptions) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongodb")
	}
	name := opts.Bucket
	if name == "" {
		name = "blobs"
	}
	bucket, err := gridfs.NewBucket(client.Database(opts.Database), options.GridFSBucket().SetName(name))
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeIO, err, "open gridfs bucket %s", name)
	}
	return &MongoStore{client: client, bucket: bucket, baseURL: opts.BaseURL}, nil
}

type gridFile struct {
	ID         any       `bson:"_id"`
	Name       string    `bson:"filename"`
	Length     int64     `bson:"length"`
	UploadDate time.Time `bson:"uploadDate"`
}

func (s *MongoStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	if err := errors.ValidateBlobName(name); err != nil {
		return "", err
	}
	old, err := s.find(ctx, bson.M{"filename": name})
	if err != nil {
		return "", err
	}

	upload := options.GridFSUpload().SetMetadata(bson.M{"content_type": ContentType(name)})
	if _, err := s.bucket.UploadFromStream(name, bytes.NewReader(data), upload); err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err, "upload blob %s", name)
	}
	for _, f := range old {
		if err := s.bucket.DeleteContext(ctx, f.ID); err != nil && err != gridfs.ErrFileNotFound {
			return "", errors.Wrap(errors.ErrCodeIO, err, "remove old revision of %s", name)
		}
	}
	return publicURL(s.baseURL, name), nil
}

func (s *MongoStore) Get(ctx context.Context, name string) ([]byte, bool, error) {
	if err := errors.ValidateBlobName(name); err != nil {
		return nil, false, err
	}
	stream, err := s.bucket.OpenDownloadStreamByName(name)
	if err == gridfs.ErrFileNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeIO, err, "open blob %s", name)
	}
	defer stream.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetReadDeadline(deadline)
	}
	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeIO, err, "read blob %s", name)
	}
	return data, true, nil
}

func (s *MongoStore) List(ctx context.Context, prefix string) ([]Info, error) {
	files, err := s.find(ctx, bson.M{"filename": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}})
	if err != nil {
		return nil, err
	}
	latest := make(map[string]gridFile)
	var names []string
	for _, f := range files {
		prev, seen := latest[f.Name]
		if !seen {
			names = append(names, f.Name)
		}
		if !seen || f.UploadDate.After(prev.UploadDate) {
			latest[f.Name] = f
		}
	}

	infos := make([]Info, 0, len(names))
	for _, name := range names {
		f := latest[name]
		infos = append(infos, Info{
			Name:        name,
			Size:        f.Length,
			ContentType: ContentType(name),
			UpdatedAt:   f.UploadDate,
			URL:         publicURL(s.baseURL, name),
		})
	}
	return infos, nil
}

func (s *MongoStore) Delete(ctx context.Context, name string) (bool, error) {
	if err := errors.ValidateBlobName(name); err != nil {
		return false, err
	}
	files, err := s.find(ctx, bson.M{"filename": name})
	if err != nil {
		return false, err
	}
	for _, f := range files {
		if err := s.bucket.DeleteContext(ctx, f.ID); err != nil && err != gridfs.ErrFileNotFound {
			return false, errors.Wrap(errors.ErrCodeIO, err, "delete blob %s", name)
		}
	}
	return len(files) > 0, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// find returns matching GridFS files sorted by name.
func (s *MongoStore) find(ctx context.Context, filter bson.M) ([]gridFile, error) {
	cur, err := s.bucket.FindContext(ctx, filter, options.GridFSFind().SetSort(bson.D{{Key: "filename", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "query gridfs")
	}
	var files []gridFile
	if err := cur.All(ctx, &files); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "read gridfs files")
	}
	return files, nil
}

var _ Store = (*MongoStore)(nil)
