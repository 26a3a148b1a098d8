package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Source --dir ../domain/league --output domain/league --outpkg leaguemock --filename source_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Catalog --dir ../domain/player --output domain/player --outpkg playermock --filename catalog_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Source --dir ../domain/ownership --output domain/ownership --outpkg ownershipmock --filename source_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Board --dir ../domain/clause --output domain/clause --outpkg clausemock --filename board_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Authenticator --dir ../domain/user --output domain/user --outpkg usermock --filename authenticator_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/snapshot --output domain/snapshot --outpkg snapshotmock --filename repository_mock.go
