package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	collectorpb "go.opentelemetry.io/proto/otlp/collector/profiles/v1development"
	profilespb "go.opentelemetry.io/proto/otlp/profiles/v1development"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// DialCollector opens a plaintext gRPC client for an OTLP collector endpoint
// (host:port). The connection is established lazily on first use.
func DialCollector(endpoint string) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial collector %s: %w", endpoint, err)
	}
	return conn, nil
}

// PushProfiles exports data through the OTLP ProfilesService.
func PushProfiles(ctx context.Context, conn grpc.ClientConnInterface, data *profilespb.ProfilesData) error {
	client := collectorpb.NewProfilesServiceClient(conn)
	resp, err := client.Export(ctx, &collectorpb.ExportProfilesServiceRequest{
		ResourceProfiles: data.GetResourceProfiles(),
		Dictionary:       data.GetDictionary(),
	})
	if err != nil {
		return fmt.Errorf("export profiles: %w", err)
	}
	if ps := resp.GetPartialSuccess(); ps != nil && ps.GetRejectedProfiles() > 0 {
		return fmt.Errorf("collector rejected %d profiles: %s", ps.GetRejectedProfiles(), ps.GetErrorMessage())
	}
	slog.Debug("Pushed OTLP profile", "resource_profiles", len(data.GetResourceProfiles()))
	return nil
}

// WriteOltpProfile writes data as binary protobuf, or as OTLP/JSON when
// asJSON is set.
func WriteOltpProfile(data *profilespb.ProfilesData, w io.Writer, asJSON bool) error {
	var (
		b   []byte
		err error
	)
	if asJSON {
		b, err = protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(data)
	} else {
		b, err = proto.Marshal(data)
	}
	if err != nil {
		return fmt.Errorf("encode otlp profile: %w", err)
	}
	_, err = w.Write(b)
	return err
}
