// Package wherering implements the gRPC transport for the wherering engine.
//
// The service is declared by hand with a grpc.ServiceDesc whose messages are
// protobuf well-known types: requests and responses are structpb.Struct
// values with the field layout defined by the codec in this package, and
// parameterless calls take emptypb.Empty. Both the server and the client
// use the same codec.
package wherering
