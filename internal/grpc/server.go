package grpc

import (
	"context"
	"errors"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/protoadapt"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Belphemur/MediaFetch/internal/apperrors"
	"github.com/Belphemur/MediaFetch/internal/config"
	"github.com/Belphemur/MediaFetch/internal/services"
)

const errorDomain = "mediafetch"

// server implements the MediaFetchServer interface
type server struct {
	previewer    services.Previewer
	orchestrator services.Orchestrator
	logger       zerolog.Logger
}

// NewServer creates a new gRPC server instance
func NewServer(previewer services.Previewer, orchestrator services.Orchestrator) MediaFetchServer {
	return &server{
		previewer:    previewer,
		orchestrator: orchestrator,
		logger:       config.GetLogger(),
	}
}

// FetchMetadata implements MediaFetchServer.FetchMetadata
func (s *server) FetchMetadata(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeRequest[MetadataRequest](in)
	if err != nil {
		return nil, toStatus(err)
	}
	s.logger.Debug().Str("url", req.URL).Bool("thumbnail", req.IncludeThumbnail).Msg("FetchMetadata called")
	if req.URL == "" {
		return nil, toStatus(apperrors.NewInvalidRequestError("url", "must not be empty"))
	}

	preview, err := s.previewer.Preview(ctx, req.URL)
	if err != nil {
		s.logger.Error().Err(err).Str("url", req.URL).Msg("Failed to fetch metadata")
		return nil, toStatus(err)
	}

	resp := MetadataResponse{Metadata: preview.Metadata}
	if req.IncludeThumbnail && preview.Thumbnail != nil {
		resp.Thumbnail = preview.Thumbnail.Data
		resp.ThumbnailContentType = preview.Thumbnail.ContentType
	}
	out, err := ToStruct(resp)
	if err != nil {
		return nil, toStatus(err)
	}
	s.logger.Debug().Str("url", req.URL).Bool("collection", preview.Metadata.IsCollection).Int("children", len(preview.Metadata.Children)).Msg("FetchMetadata completed")
	return out, nil
}

// Download implements MediaFetchServer.Download
func (s *server) Download(in *structpb.Struct, stream DownloadServerStream) error {
	ctx := stream.Context()
	wire, err := decodeRequest[DownloadRequest](in)
	if err != nil {
		return toStatus(err)
	}
	req := toModelRequest(wire)
	s.logger.Debug().Str("url", req.SourceURL).Str("kind", string(req.MediaKind)).Str("quality", req.Quality.String()).Msg("Download called")

	updates := make(chan services.ProgressUpdate, 64)
	listener := services.ProgressListenerFunc(func(u services.ProgressUpdate) {
		select {
		case updates <- u:
		case <-ctx.Done():
		}
	})
	done := s.orchestrator.Start(ctx, req, listener)

	send := func(v any) error {
		msg, err := ToStruct(v)
		if err != nil {
			return toStatus(err)
		}
		return stream.Send(msg)
	}

	for {
		select {
		case u := <-updates:
			if err := send(progressToMessage(u)); err != nil {
				return err
			}
		case res := <-done:
			// Run has returned, so every update is already buffered
			for drained := false; !drained; {
				select {
				case u := <-updates:
					if err := send(progressToMessage(u)); err != nil {
						return err
					}
				default:
					drained = true
				}
			}
			if res.Err != nil {
				s.logger.Error().Err(res.Err).Str("url", req.SourceURL).Msg("Download failed")
				return toStatus(res.Err)
			}
			s.logger.Debug().Str("requestID", res.Value.RequestID).Str("state", string(res.Value.State)).Msg("Download completed")
			return send(resultToMessage(res.Value, wire.IncludeArchive))
		}
	}
}

// toStatus maps engine errors onto gRPC status codes. Errors the engine does
// not classify are reported to Sentry.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var invalid *apperrors.InvalidRequestError
	var fetch *apperrors.MetadataFetchError
	var archive *apperrors.ArchiveError
	switch {
	case errors.As(err, &invalid):
		return withDetails(codes.InvalidArgument, err, &errdetails.BadRequest{
			FieldViolations: []*errdetails.BadRequest_FieldViolation{{Field: invalid.Field, Description: invalid.Reason}},
		})
	case errors.As(err, &fetch):
		return withDetails(codes.FailedPrecondition, err, &errdetails.ErrorInfo{
			Reason:   "METADATA_FETCH_FAILED",
			Domain:   errorDomain,
			Metadata: map[string]string{"url": fetch.URL},
		})
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.As(err, &archive):
		sentry.CaptureException(err)
		return withDetails(codes.Internal, err, &errdetails.ErrorInfo{
			Reason:   "ARCHIVE_FAILED",
			Domain:   errorDomain,
			Metadata: map[string]string{"path": archive.Path},
		})
	default:
		sentry.CaptureException(err)
		return status.Error(codes.Internal, err.Error())
	}
}

func withDetails(code codes.Code, err error, detail protoadapt.MessageV1) error {
	st, derr := status.New(code, err.Error()).WithDetails(detail)
	if derr != nil {
		return status.Error(code, err.Error())
	}
	return st.Err()
}
