package api

// Upstream endpoint paths, relative to the gateway's configured base URL.
// JSON:API paths live under /web/jsonapi; the rest are legacy Drupal REST.
const (
	endpointLogin  = "/web/user/login"
	endpointLogout = "/web/user/logout"

	endpointBooks       = "/web/jsonapi/lmsbook/lmsbook"
	endpointBookDetails = "/web/lmsbook"
	endpointReservation = "/web/entity/requestedlmsbook"

	endpointAuthors       = "/web/jsonapi/lmsbookauthor/lmsbookauthor"
	endpointAuthorDetails = "/web/lmsbookauthor"

	endpointCategoryTaxonomy = "/web/jsonapi/taxonomy_term/lmsbook_category"

	endpointUserProfile    = "/web/user"
	endpointBorrowedBooks  = "/web/borrowed"
	endpointRequestedBooks = "/web/requested"
)
